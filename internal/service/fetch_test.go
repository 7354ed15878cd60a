package service

import (
	"context"
	"errors"
	"testing"

	"pokedex/internal/client/pokeapi"
)

func TestFetchAndStore_ImportsPage(t *testing.T) {
	repo := newStubRepo()
	client := &stubClient{
		entries: []pokeapi.PageEntry{
			{Name: "bulbasaur"},
			{Name: "ivysaur"},
			{Name: "venusaur"},
		},
		byName: map[string]*pokeapi.Pokemon{
			"bulbasaur": upstream(1, "bulbasaur", "grass"),
			"ivysaur":   upstream(2, "ivysaur", "grass"),
			"venusaur":  upstream(3, "venusaur", "grass"),
		},
	}
	f := &FetchService{Store: repo, API: client}

	result, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Success || result.Count != 3 || result.Failed != 0 {
		t.Fatalf("result=%+v", result)
	}
	if result.NextOffset != 3 {
		t.Fatalf("next_offset=%d want 3", result.NextOffset)
	}
	if len(repo.items) != 3 {
		t.Fatalf("stored=%d want 3", len(repo.items))
	}
	state := repo.states[syncScope]
	if state.Cursor == nil || *state.Cursor != "3" {
		t.Fatalf("cursor=%v want 3", state.Cursor)
	}
}

func TestFetchAndStore_MultiplePages(t *testing.T) {
	repo := newStubRepo()
	client := &stubClient{
		entries: []pokeapi.PageEntry{
			{Name: "bulbasaur"},
			{Name: "ivysaur"},
			{Name: "venusaur"},
		},
		byName: map[string]*pokeapi.Pokemon{
			"bulbasaur": upstream(1, "bulbasaur", "grass"),
			"ivysaur":   upstream(2, "ivysaur", "grass"),
			"venusaur":  upstream(3, "venusaur", "grass"),
		},
	}
	f := &FetchService{Store: repo, API: client}

	result, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 2, MaxPages: 5})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Success || result.Count != 3 || result.Pages != 2 {
		t.Fatalf("result=%+v want 3 imported over 2 pages", result)
	}
	// The second page was short, so the run stopped before MaxPages.
	if client.listCalls != 2 {
		t.Fatalf("listCalls=%d want 2", client.listCalls)
	}
}

func TestFetchAndStore_PartialFailuresReduceCount(t *testing.T) {
	repo := newStubRepo()
	client := &stubClient{
		entries: []pokeapi.PageEntry{
			{Name: "bulbasaur"},
			{Name: "glitchmon"},
			{Name: "ivysaur"},
		},
		byName: map[string]*pokeapi.Pokemon{
			"bulbasaur": upstream(1, "bulbasaur", "grass"),
			"ivysaur":   upstream(2, "ivysaur", "grass"),
		},
	}
	f := &FetchService{Store: repo, API: client}

	result, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !result.Success {
		t.Fatalf("partial failures must not fail the run: %+v", result)
	}
	if result.Count != 2 || result.Failed != 1 {
		t.Fatalf("count=%d failed=%d want 2/1", result.Count, result.Failed)
	}
	// The cursor still advances past the whole listed page.
	if result.NextOffset != 3 {
		t.Fatalf("next_offset=%d want 3", result.NextOffset)
	}
}

func TestFetchAndStore_ListingFailure(t *testing.T) {
	repo := newStubRepo()
	client := &stubClient{listErr: errors.New("upstream down")}
	f := &FetchService{Store: repo, API: client}

	result, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 3, Offset: 60})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Success {
		t.Fatalf("expected success=false")
	}
	if result.Count != 0 || len(repo.items) != 0 {
		t.Fatalf("nothing should be stored on a listing failure")
	}
	state := repo.states[syncScope]
	if state.LastError == nil {
		t.Fatalf("expected last_error recorded")
	}
}

func TestFetchAndStore_ResumesFromCursor(t *testing.T) {
	repo := newStubRepo()
	cursor := "40"
	repo.states[syncScope] = stateWithCursor(cursor)
	client := &stubClient{}
	f := &FetchService{Store: repo, API: client}

	if _, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 20, Resume: true}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if client.lastOff != 40 {
		t.Fatalf("offset=%d want 40", client.lastOff)
	}
}

func TestFetchAndStore_ExplicitOffsetWinsOverCursor(t *testing.T) {
	repo := newStubRepo()
	repo.states[syncScope] = stateWithCursor("40")
	client := &stubClient{}
	f := &FetchService{Store: repo, API: client}

	if _, err := f.FetchAndStore(context.Background(), FetchOptions{Limit: 20, Offset: 100, Resume: true}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if client.lastOff != 100 {
		t.Fatalf("offset=%d want 100", client.lastOff)
	}
}
