package people

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const cleanReply = `[
  {"Name": "Dr. Anna Keller", "Gender": "Female", "Role": "Doctor", "Uncertain": false},
  {"Name": "Marc Weber", "Gender": "Male", "Role": "Non-Doctor", "Uncertain": true}
]`

func TestParsePeople(t *testing.T) {
	got, err := ParsePeople(cleanReply)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d people, want 2", len(got))
	}
	if got[0].Name != "Dr. Anna Keller" || got[0].Gender != "Female" || got[0].Role != "Doctor" {
		t.Errorf("first person = %+v", got[0])
	}
	if !got[1].Uncertain {
		t.Error("second person should be uncertain")
	}
}

func TestParsePeopleRecoversWrappedList(t *testing.T) {
	wrapped := "Here is the extracted team:\n" + cleanReply + "\nLet me know if you need more."
	got, err := ParsePeople(wrapped)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d people, want 2", len(got))
	}
}

func TestParsePeopleNoList(t *testing.T) {
	raw := "I could not find any individuals on this page."
	_, err := ParsePeople(raw)
	if !errors.Is(err, ErrNoJSONList) {
		t.Fatalf("err = %v, want ErrNoJSONList", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Raw != raw {
		t.Error("ParseError should carry the raw reply")
	}
}

func TestParsePeopleBadJSON(t *testing.T) {
	_, err := ParsePeople(`[{"Name": broken]`)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want a ParseError", err)
	}
}

func TestCount(t *testing.T) {
	people := []Person{
		{Name: "A", Gender: "Female", Role: "Doctor"},
		{Name: "B", Gender: "female", Role: " doctor "},
		{Name: "C", Gender: "Male", Role: "Doctor"},
		{Name: "D", Gender: "Female", Role: "Non-Doctor"},
		{Name: "E", Gender: "Male", Role: "Non-Doctor"},
		{Name: "F", Gender: "", Role: "Doctor"},
		{Name: "G", Gender: "Female", Role: "Manager"},
	}
	c := Count(people)
	want := Counts{FemaleDoctors: 2, MaleDoctors: 1, FemaleNonDoctors: 1, MaleNonDoctors: 1}
	if c != want {
		t.Errorf("Count = %+v, want %+v", c, want)
	}
}

func chatReply(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestClientExtractPeople(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Temperature != 0 {
			t.Errorf("temperature = %v, want 0", req.Temperature)
		}
		if calls == 1 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(chatReply(cleanReply)))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		RetryDelay: time.Millisecond,
	})
	got, err := c.ExtractPeople(context.Background(), "Unser Team: Dr. Anna Keller, Marc Weber.")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("got %d people, want 2", len(got))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want a retry after the 503", calls)
	}
}

func TestClientGivesUpOnBadRequest(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	if _, err := c.ExtractPeople(context.Background(), "text"); err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want no retry on a 400", calls)
	}
}
