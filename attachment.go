package vkbot

import "fmt"

// Attachment type discriminators as sent by VK.
const (
	AttachmentPhoto = "photo"
	AttachmentDoc   = "doc"
	AttachmentVideo = "video"
	AttachmentAudio = "audio"
)

// Attachment is one message attachment envelope. Exactly one of the
// typed fields is set, matching Type.
type Attachment struct {
	Type  string    `json:"type"`
	Photo *Photo    `json:"photo,omitempty"`
	Doc   *Document `json:"doc,omitempty"`
	Video *Video    `json:"video,omitempty"`
	Audio *Audio    `json:"audio,omitempty"`
}

type PhotoSize struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Photo struct {
	ID        int64       `json:"id"`
	OwnerID   int64       `json:"owner_id"`
	AccessKey string      `json:"access_key,omitempty"`
	Sizes     []PhotoSize `json:"sizes,omitempty"`
}

func (p Photo) Attachment() string {
	return attachmentString(AttachmentPhoto, p.OwnerID, p.ID, p.AccessKey)
}

// URL returns the largest available size by area, empty when none.
func (p Photo) URL() string {
	best := -1
	url := ""
	for _, size := range p.Sizes {
		area := size.Width * size.Height
		if area > best {
			best = area
			url = size.URL
		}
	}
	return url
}

type Document struct {
	ID        int64  `json:"id"`
	OwnerID   int64  `json:"owner_id"`
	Title     string `json:"title,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Ext       string `json:"ext,omitempty"`
	URL       string `json:"url,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
}

func (d Document) Attachment() string {
	return attachmentString(AttachmentDoc, d.OwnerID, d.ID, d.AccessKey)
}

type Video struct {
	ID          int64  `json:"id"`
	OwnerID     int64  `json:"owner_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	AccessKey   string `json:"access_key,omitempty"`
}

func (v Video) Attachment() string {
	return attachmentString(AttachmentVideo, v.OwnerID, v.ID, v.AccessKey)
}

type Audio struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"owner_id"`
	Artist   string `json:"artist,omitempty"`
	Title    string `json:"title,omitempty"`
	Duration int    `json:"duration,omitempty"`
	URL      string `json:"url,omitempty"`
}

func (a Audio) Attachment() string {
	return attachmentString(AttachmentAudio, a.OwnerID, a.ID, "")
}

func attachmentString(kind string, ownerID, mediaID int64, accessKey string) string {
	out := fmt.Sprintf("%s%d_%d", kind, ownerID, mediaID)
	if accessKey != "" {
		out += "_" + accessKey
	}
	return out
}
