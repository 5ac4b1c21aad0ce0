package api

import "testing"

func TestParamsBuilders(t *testing.T) {
	p := Params{}.
		Set("message", "hi").
		SetInt("peer_id", -187037543).
		SetBool("disable_mentions", true).
		SetBool("dont_parse_links", false)

	if p["message"] != "hi" {
		t.Fatalf("unexpected message: %q", p["message"])
	}
	if p["peer_id"] != "-187037543" {
		t.Fatalf("unexpected peer_id: %q", p["peer_id"])
	}
	if p["disable_mentions"] != "1" || p["dont_parse_links"] != "0" {
		t.Fatalf("bools must encode as 1/0, got %q/%q", p["disable_mentions"], p["dont_parse_links"])
	}
}

func TestParamsSetJSON(t *testing.T) {
	p := Params{}
	if err := p.SetJSON("event_data", map[string]string{"type": "show_snackbar", "text": "ok"}); err != nil {
		t.Fatalf("set json: %v", err)
	}
	want := `{"text":"ok","type":"show_snackbar"}`
	if p["event_data"] != want {
		t.Fatalf("unexpected event_data: %q", p["event_data"])
	}
}

func TestParamsMergeOverwrites(t *testing.T) {
	p := Params{"a": "1", "b": "2"}.Merge(Params{"b": "3", "c": "4"})
	if p["a"] != "1" || p["b"] != "3" || p["c"] != "4" {
		t.Fatalf("unexpected merge result: %v", p)
	}
}
