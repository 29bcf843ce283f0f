package app

import (
	"errors"
	"testing"
)

func TestNavigator_Routes(t *testing.T) {
	tests := []struct {
		name    string
		path    []Destination
		wantErr bool
		want    []Destination
	}{
		{"login to home", []Destination{DestHome}, false, []Destination{DestLogin, DestHome}},
		{"home to history", []Destination{DestHome, DestHistory}, false, []Destination{DestLogin, DestHome, DestHistory}},
		{"settings logout clears stack", []Destination{DestHome, DestSettings, DestLogin}, false, []Destination{DestLogin}},
		{"login cannot skip to settings", []Destination{DestSettings}, true, []Destination{DestLogin}},
		{"history is a leaf", []Destination{DestHome, DestHistory, DestSettings}, true, []Destination{DestLogin, DestHome, DestHistory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNavigator()
			var err error
			for _, d := range tt.path {
				if err = n.Navigate(d); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRoute) {
				t.Fatalf("err = %v, want ErrInvalidRoute", err)
			}
			if got := n.Stack(); !equal(toStrings(got), toStrings(tt.want)) {
				t.Fatalf("stack = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNavigator_Back(t *testing.T) {
	n := NewNavigator()
	if n.Back() {
		t.Fatal("back at root must report false")
	}
	_ = n.Navigate(DestHome)
	_ = n.Navigate(DestHistory)
	if !n.Back() || n.Current() != DestHome {
		t.Fatalf("after back current = %s, want home", n.Current())
	}
	n.ResetTo(DestLogin)
	if got := n.Stack(); len(got) != 1 || got[0] != DestLogin {
		t.Fatalf("stack after reset = %v", got)
	}
}

func TestParseDestination(t *testing.T) {
	if d, err := ParseDestination("history"); err != nil || d != DestHistory {
		t.Fatalf("ParseDestination(history) = %q, %v", d, err)
	}
	if _, err := ParseDestination("charts"); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute, got %v", err)
	}
}

func toStrings(ds []Destination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
