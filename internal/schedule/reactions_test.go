package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trypzy/backend/internal/storage/models"
)

func reaction(windowID, userID, reactionType string) models.Reaction {
	return models.Reaction{WindowID: windowID, UserID: userID, ReactionType: reactionType, CreatedAt: baseTime, UpdatedAt: baseTime}
}

func TestSummarize(t *testing.T) {
	require := require.New(t)

	reactions := []models.Reaction{
		reaction("w1", "alice", models.ReactionWorks),
		reaction("w1", "bob", models.ReactionCaveat),
		reaction("w1", "carol", models.ReactionCant),
		reaction("w2", "alice", models.ReactionWorks),
	}
	summary := Summarize("w1", reactions, 4, "bob")

	require.Equal(1, summary.Approvals)
	require.Equal(1, summary.Caveats)
	require.Equal(1, summary.Cants)
	require.Equal(3, summary.TotalReactions)
	require.Equal(2, summary.RequiredApprovals)
	require.Equal(4, summary.MemberCount)
	require.False(summary.ReadyToLock)
	require.NotNil(summary.UserReaction)
	require.Equal(models.ReactionCaveat, *summary.UserReaction)
	require.Len(summary.Reactions, 3)
}

func TestSummarizeEmpty(t *testing.T) {
	require := require.New(t)

	summary := Summarize("w1", nil, 3, "")
	require.Zero(summary.TotalReactions)
	require.Equal(2, summary.RequiredApprovals)
	require.False(summary.ReadyToLock)
	require.Nil(summary.UserReaction)
	require.NotNil(summary.Reactions)
}

func TestSummariesAreIndependent(t *testing.T) {
	require := require.New(t)

	reactions := []models.Reaction{
		reaction("w1", "alice", models.ReactionWorks),
		reaction("w2", "alice", models.ReactionCant),
		reaction("w2", "bob", models.ReactionWorks),
	}
	summaries := Summaries([]string{"w1", "w2", "w3"}, reactions, 2, "alice")

	require.Len(summaries, 3)
	require.True(summaries["w1"].ReadyToLock)
	require.Equal(1, summaries["w2"].Approvals)
	require.Equal(1, summaries["w2"].Cants)
	require.Equal(models.ReactionCant, *summaries["w2"].UserReaction)
	require.Zero(summaries["w3"].TotalReactions)
}

func TestRequiredApprovals(t *testing.T) {
	for members, expect := range map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 7: 4} {
		require.Equal(t, expect, RequiredApprovals(members), "members=%d", members)
	}
}
