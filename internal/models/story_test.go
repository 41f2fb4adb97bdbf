package models

import "testing"

func TestStoryNodeIsEnding(t *testing.T) {
	branch := &StoryNode{
		NodeID:  "start",
		Choices: []Choice{{Label: "Go left", NextNodeID: "left"}},
	}
	if branch.IsEnding() {
		t.Error("node with choices should not be an ending")
	}

	ending := &StoryNode{NodeID: "end"}
	if !ending.IsEnding() {
		t.Error("node without choices should be an ending")
	}
}

func TestStoryNode(t *testing.T) {
	story := &Story{
		StartNodeID: "start",
		Nodes: []StoryNode{
			{NodeID: "start", Choices: []Choice{{Label: "Onward", NextNodeID: "end"}}},
			{NodeID: "end"},
		},
	}

	if node := story.Node("start"); node == nil || node.NodeID != "start" {
		t.Errorf("Node(\"start\") = %v, want start node", node)
	}
	if node := story.Node("missing"); node != nil {
		t.Errorf("Node(\"missing\") = %v, want nil", node)
	}
}

func TestStoryIsPublished(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{status: StoryStatusDraft, want: false},
		{status: StoryStatusPublished, want: true},
		{status: StoryStatusRemoved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			story := &Story{Status: tt.status}
			if got := story.IsPublished(); got != tt.want {
				t.Errorf("IsPublished() with status %q = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestStoryAverageRating(t *testing.T) {
	tests := []struct {
		name        string
		ratingSum   int64
		ratingCount int64
		want        float64
	}{
		{name: "no ratings", ratingSum: 0, ratingCount: 0, want: 0},
		{name: "single rating", ratingSum: 4, ratingCount: 1, want: 4},
		{name: "fractional average", ratingSum: 9, ratingCount: 2, want: 4.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story := &Story{RatingSum: tt.ratingSum, RatingCount: tt.ratingCount}
			if got := story.AverageRating(); got != tt.want {
				t.Errorf("AverageRating() = %v, want %v", got, tt.want)
			}
		})
	}
}
