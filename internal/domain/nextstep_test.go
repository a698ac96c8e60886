package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdvisor struct {
	actions []RecommendedAction
	err     error
	called  bool
}

func (f *fakeAdvisor) RecommendNextSteps(_ context.Context, _ Post, _ PostAnalysis, _ []ImportantResponder) ([]RecommendedAction, error) {
	f.called = true
	return f.actions, f.err
}

func TestPlanWithNoImportantResponders(t *testing.T) {
	advisor := &fakeAdvisor{}
	planner := NewNextStepPlanner(advisor, testLogger())

	replies := makeReplies(3)
	outcomes := []Outcome{
		{ReplyID: "reply-0", Status: OutcomeSuccess, Sentiment: SentimentFriendly},
		{ReplyID: "reply-1", Status: OutcomeSuccess, Sentiment: SentimentSilly},
	}

	steps := planner.Plan(context.Background(), Post{ID: "post-1"}, PostAnalysis{}, outcomes, replies)

	assert.Empty(t, steps.ImportantResponders)
	assert.False(t, advisor.called, "advisor should not be consulted without responders")
	require.Len(t, steps.Actions, 2)
	assert.Equal(t, "monitor_engagement", steps.Actions[0].Action)
	assert.Equal(t, "engage_community", steps.Actions[1].Action)
}

func TestPlanUsesAdvisorRecommendations(t *testing.T) {
	advisor := &fakeAdvisor{
		actions: []RecommendedAction{
			{Action: ActionSendDM, Description: "Reach out privately", Priority: "high"},
		},
	}
	planner := NewNextStepPlanner(advisor, testLogger())

	replies := []Reply{{
		ID:      "reply-0",
		Type:    "text",
		Content: "Great work, let's collab!",
		Author:  Author{Name: "brand_account", Verified: true},
	}}
	outcomes := []Outcome{{
		ReplyID:         "reply-0",
		Status:          OutcomeSuccess,
		Sentiment:       SentimentFriendly,
		AuthorImportant: true,
	}}

	steps := planner.Plan(context.Background(), Post{ID: "post-1"}, PostAnalysis{}, outcomes, replies)

	require.Len(t, steps.ImportantResponders, 1)
	assert.Equal(t, "brand_account", steps.ImportantResponders[0].AuthorName)
	assert.True(t, steps.ImportantResponders[0].Verified)
	require.Len(t, steps.Actions, 1)
	assert.Equal(t, ActionSendDM, steps.Actions[0].Action)
	assert.Contains(t, steps.Summary, "brand_account")
}

func TestPlanFallsBackToTemplatesOnAdvisorError(t *testing.T) {
	advisor := &fakeAdvisor{err: errors.New("quota exceeded")}
	planner := NewNextStepPlanner(advisor, testLogger())

	replies := []Reply{
		{ID: "reply-0", Type: "text", Content: "interested in a partnership?", Author: Author{Name: "agency"}},
		{ID: "reply-1", Type: "text", Content: "you suck", Author: Author{Name: "troll", Verified: true}},
	}
	outcomes := []Outcome{
		{ReplyID: "reply-0", Status: OutcomeSuccess, Sentiment: SentimentFriendly, AuthorImportant: true},
		{ReplyID: "reply-1", Status: OutcomeSuccess, Sentiment: SentimentHarmful, AuthorImportant: true},
	}

	steps := planner.Plan(context.Background(), Post{ID: "post-1"}, PostAnalysis{}, outcomes, replies)

	require.Len(t, steps.Actions, 2)

	partnership := steps.Actions[0]
	assert.Equal(t, ActionReplyPublicly, partnership.Action)
	assert.Equal(t, "brand_partnership", partnership.OpportunityType)
	assert.Contains(t, partnership.SuggestedResponse, "agency")

	hostile := steps.Actions[1]
	assert.Equal(t, ActionIgnore, hostile.Action)
	assert.Equal(t, "low", hostile.Priority)
	assert.Empty(t, hostile.SuggestedResponse, "no draft for harmful responders")
}

func TestCollectImportantRespondersPreservesOrder(t *testing.T) {
	replies := makeReplies(4)
	replies[1].Author.Verified = true
	outcomes := []Outcome{
		{ReplyID: "reply-0", AuthorImportant: false},
		{ReplyID: "reply-1", AuthorImportant: true, Sentiment: SentimentFriendly},
		{ReplyID: "reply-2", AuthorImportant: false},
		{ReplyID: "reply-3", AuthorImportant: true, Sentiment: SentimentSilly},
	}

	responders := collectImportantResponders(outcomes, replies)
	require.Len(t, responders, 2)
	assert.Equal(t, "reply-1", responders[0].ReplyID)
	assert.Equal(t, "reply-3", responders[1].ReplyID)
	assert.True(t, responders[0].Verified)
}
