// Package console is the single-user, in-memory todo manager behind the
// terminal UI. Nothing here persists or authenticates; state lives for the
// lifetime of the program.
package console

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Item is a single todo entry. IDs are sequential and never reused within
// a run.
type Item struct {
	ID          int
	Title       string
	Description string
	Completed   bool
}

// TodoList holds the items for the one local user.
type TodoList struct {
	items  []*Item
	nextID int
}

func NewTodoList() *TodoList {
	return &TodoList{nextID: 1}
}

// Add appends a new pending item. Whitespace-only titles are rejected.
func (l *TodoList) Add(title, description string) (*Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	item := &Item{
		ID:          l.nextID,
		Title:       title,
		Description: strings.TrimSpace(description),
	}
	l.nextID++
	l.items = append(l.items, item)
	return item, nil
}

// Items returns the list in insertion order.
func (l *TodoList) Items() []*Item {
	return l.items
}

// Get finds an item by id.
func (l *TodoList) Get(id int) (*Item, error) {
	for _, it := range l.items {
		if it.ID == id {
			return it, nil
		}
	}
	return nil, errors.Errorf("no task with ID %d", id)
}

// UpdateTitle renames an item, keeping the empty-title rule.
func (l *TodoList) UpdateTitle(id int, title string) (*Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("title cannot be empty")
	}
	it, err := l.Get(id)
	if err != nil {
		return nil, err
	}
	it.Title = title
	return it, nil
}

// Complete marks an item done. Completing an already-done item is not an
// error; the second return reports whether anything changed.
func (l *TodoList) Complete(id int) (*Item, bool, error) {
	it, err := l.Get(id)
	if err != nil {
		return nil, false, err
	}
	if it.Completed {
		return it, false, nil
	}
	it.Completed = true
	return it, true, nil
}

// Delete removes an item by id.
func (l *TodoList) Delete(id int) (*Item, error) {
	for i, it := range l.items {
		if it.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return it, nil
		}
	}
	return nil, errors.Errorf("no task with ID %d", id)
}

// Summary renders the one-line progress footer.
func (l *TodoList) Summary() string {
	done := 0
	for _, it := range l.items {
		if it.Completed {
			done++
		}
	}
	return fmt.Sprintf("%d/%d done", done, len(l.items))
}
