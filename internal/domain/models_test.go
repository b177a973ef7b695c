package domain

import "testing"

func TestTicketIsDeleted(t *testing.T) {
	var tk Ticket
	if tk.IsDeleted() {
		t.Fatalf("nil flag should count as live")
	}

	f := false
	tk.Deleted = &f
	if tk.IsDeleted() {
		t.Fatalf("false flag should count as live")
	}

	d := true
	tk.Deleted = &d
	if !tk.IsDeleted() {
		t.Fatalf("true flag should count as deleted")
	}
}

func TestStatusAndPriorityConstants(t *testing.T) {
	if StatusOpen != "Open" || StatusInProgress != "In Progress" || StatusClosed != "Closed" {
		t.Fatalf("status constants changed: %q %q %q", StatusOpen, StatusInProgress, StatusClosed)
	}
	if PriorityLow != "Low" || PriorityMedium != "Medium" || PriorityHigh != "High" {
		t.Fatalf("priority constants changed: %q %q %q", PriorityLow, PriorityMedium, PriorityHigh)
	}
}

func TestTopicLimits(t *testing.T) {
	if MaxTopics != 10 {
		t.Fatalf("MaxTopics = %d", MaxTopics)
	}
	if MaxTopicNameLen != 50 {
		t.Fatalf("MaxTopicNameLen = %d", MaxTopicNameLen)
	}
}
