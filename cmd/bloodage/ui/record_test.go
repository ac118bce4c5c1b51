package ui

import (
	"strings"
	"testing"

	"bloodage/internal/calculator"
	"bloodage/internal/history"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
)

func typeText(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

func TestRecordModelCollectsAnswers(t *testing.T) {
	var opened []string
	entries := []calculator.Entry{
		{Date: "2024-01-15", URL: "u1"},
		{Date: "2024-03-01", URL: "u2"},
		{Date: "2024-06-01", URL: "u3"},
	}
	model := NewRecordModel(entries, func(u string) { opened = append(opened, u) }, 0)

	// Run the open command for the first page by hand.
	msg := model.openCurrent()()
	var m tea.Model = model
	m, _ = m.Update(msg)
	if !strings.Contains(m.View(), "[1/3] 2024-01-15") {
		t.Fatalf("expected first entry header, got:\n%s", m.View())
	}

	m = typeText(t, m, "abc")
	if !strings.Contains(m.View(), "Invalid input") {
		t.Fatalf("expected invalid input warning")
	}
	m = typeText(t, m, "52.3")
	m = typeText(t, m, "skip")
	m = typeText(t, m, "54")

	rm := m.(RecordModel)
	if !rm.Done() || rm.Stopped() {
		t.Fatalf("expected completed run, done=%v stopped=%v", rm.Done(), rm.Stopped())
	}
	want := []history.Result{
		{Date: "2024-01-15", Age: "52.3", Notes: NoteManualEntry},
		{Date: "2024-03-01", Notes: NoteSkipped},
		{Date: "2024-06-01", Age: "54", Notes: NoteManualEntry},
	}
	if diff := cmp.Diff(want, rm.Results()); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}
	if len(opened) != 1 || opened[0] != "u1" {
		t.Fatalf("expected only the first page to be opened by hand, got %v", opened)
	}
}

func TestRecordModelQuitKeepsPartialResults(t *testing.T) {
	entries := []calculator.Entry{{Date: "2024-01-15", URL: "u1"}, {Date: "2024-03-01", URL: "u2"}}
	var m tea.Model = NewRecordModel(entries, nil, 0)

	m = typeText(t, m, "50")
	m = typeText(t, m, "QUIT")

	rm := m.(RecordModel)
	if !rm.Stopped() || rm.Done() {
		t.Fatalf("expected stopped run")
	}
	if len(rm.Results()) != 1 {
		t.Fatalf("expected 1 partial result, got %d", len(rm.Results()))
	}
}

func TestRecordModelIgnoresStaleReady(t *testing.T) {
	entries := []calculator.Entry{{Date: "2024-01-15", URL: "u1"}, {Date: "2024-03-01", URL: "u2"}}
	var m tea.Model = NewRecordModel(entries, nil, 0)
	m = typeText(t, m, "50")

	m, _ = m.Update(readyMsg{index: 0})
	if m.(RecordModel).ready {
		t.Fatal("ready for a previous page must not mark the current one ready")
	}
	m, _ = m.Update(readyMsg{index: 1})
	if !m.(RecordModel).ready {
		t.Fatal("expected current page ready")
	}
}

func TestRecordModelEmpty(t *testing.T) {
	m := NewRecordModel(nil, nil, 0)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.Done() {
		t.Fatal("empty model should be done")
	}
}
