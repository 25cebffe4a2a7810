package console

import "testing"

func TestAddAssignsSequentialIDs(t *testing.T) {
	l := NewTodoList()
	a, err := l.Add("first", "")
	if err != nil || a.ID != 1 {
		t.Fatalf("first add: %+v err=%v", a, err)
	}
	b, _ := l.Add("second", "details")
	if b.ID != 2 || b.Description != "details" {
		t.Fatalf("second add: %+v", b)
	}

	// deleting does not free the id
	if _, err := l.Delete(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c, _ := l.Add("third", "")
	if c.ID != 3 {
		t.Fatalf("id reused after delete: %d", c.ID)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	l := NewTodoList()
	for _, title := range []string{"", "   ", "\t"} {
		if _, err := l.Add(title, ""); err == nil {
			t.Fatalf("Add(%q) should fail", title)
		}
	}
	if len(l.Items()) != 0 {
		t.Fatalf("rejected adds must not persist, got %d items", len(l.Items()))
	}
}

func TestCompleteIsInfoOnRepeat(t *testing.T) {
	l := NewTodoList()
	it, _ := l.Add("task", "")

	_, changed, err := l.Complete(it.ID)
	if err != nil || !changed {
		t.Fatalf("first complete: changed=%v err=%v", changed, err)
	}
	_, changed, err = l.Complete(it.ID)
	if err != nil || changed {
		t.Fatalf("second complete: changed=%v err=%v", changed, err)
	}
	if _, _, err := l.Complete(99); err == nil {
		t.Fatal("completing a missing id should fail")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	l := NewTodoList()
	it, _ := l.Add("old", "")

	upd, err := l.UpdateTitle(it.ID, "new")
	if err != nil || upd.Title != "new" {
		t.Fatalf("update: %+v err=%v", upd, err)
	}
	if _, err := l.UpdateTitle(it.ID, "  "); err == nil {
		t.Fatal("blank rename should fail")
	}

	if _, err := l.Delete(it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := l.Get(it.ID); err == nil {
		t.Fatal("get after delete should fail")
	}
	if _, err := l.Delete(it.ID); err == nil {
		t.Fatal("double delete should fail")
	}
}

func TestSummary(t *testing.T) {
	l := NewTodoList()
	if got := l.Summary(); got != "0/0 done" {
		t.Fatalf("empty summary: %q", got)
	}
	a, _ := l.Add("a", "")
	l.Add("b", "")
	l.Complete(a.ID)
	if got := l.Summary(); got != "1/2 done" {
		t.Fatalf("summary: %q", got)
	}
}
