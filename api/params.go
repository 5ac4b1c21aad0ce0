package api

import (
	"encoding/json"
	"net/url"
	"strconv"
)

// Params collects VK method arguments before URL encoding.
type Params map[string]string

func (p Params) Set(key, value string) Params {
	p[key] = value
	return p
}

func (p Params) SetInt(key string, value int64) Params {
	p[key] = strconv.FormatInt(value, 10)
	return p
}

// SetBool encodes booleans the VK way, as 1 or 0.
func (p Params) SetBool(key string, value bool) Params {
	if value {
		p[key] = "1"
	} else {
		p[key] = "0"
	}
	return p
}

func (p Params) SetJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	p[key] = string(data)
	return nil
}

// Merge overlays other onto p. Existing keys are overwritten.
func (p Params) Merge(other Params) Params {
	for k, v := range other {
		p[k] = v
	}
	return p
}

func (p Params) values() url.Values {
	vals := make(url.Values, len(p))
	for k, v := range p {
		vals.Set(k, v)
	}
	return vals
}
