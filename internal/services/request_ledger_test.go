package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/go-chatcode-backend/internal/domain"
	"github.com/tbourn/go-chatcode-backend/internal/repo"
)

func idsOf(rs []domain.ChatRequest) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

// ---------- Create() ----------

func TestCreate_ValidationOrder(t *testing.T) {
	f := newFixture(t, "20000001", "20000002")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)

	_, err = f.Ledger.Create(ctx, "bob", "2000000x")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.Ledger.Create(ctx, "bob", "99999999")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	// Format wins over ownership: the owner sending a malformed code gets InvalidFormat.
	_, err = f.Ledger.Create(ctx, "alice", "2000")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.Ledger.Create(ctx, "alice", code.Code)
	assert.ErrorIs(t, err, ErrSelfRequest)

	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, r.Status)
	assert.Equal(t, "bob", r.RequestedBy)
	assert.Equal(t, "alice", r.RequestedTo)
	assert.Equal(t, code.ID, r.ChatCodeID)

	_, err = f.Ledger.Create(ctx, "bob", code.Code)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	assert.Equal(t, []string{EventRequestCreated + "@alice"}, f.Notifier.kinds())
}

func TestCreate_RejectsExpiredAndRetiredCodes(t *testing.T) {
	f := newFixture(t, "21000001", "21000002")
	ctx := context.Background()
	expiring, err := f.Registry.Generate(ctx, "alice", false, 1)
	require.NoError(t, err)
	retired, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	require.NoError(t, f.Registry.Retire(ctx, retired.ID))

	_, err = f.Ledger.Create(ctx, "bob", retired.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	f.Clock.Advance(90 * time.Minute)
	_, err = f.Ledger.Create(ctx, "bob", expiring.Code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestCreate_AfterDeclineIsAllowedAgain(t *testing.T) {
	f := newFixture(t, "22000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)

	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)
	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionDecline)
	require.NoError(t, err)

	again, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)
	assert.NotEqual(t, r.ID, again.ID)
}

// ---------- Resolve() ----------

func TestResolve_DeclineSoftDeletesAndHides(t *testing.T) {
	f := newFixture(t, "23000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)

	got, err := f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionDecline)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, got.Status)
	assert.True(t, got.DeletedAt.Valid)

	stored, err := repo.GetRequestUnscoped(ctx, f.DB, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, stored.Status)
	assert.True(t, stored.DeletedAt.Valid)

	in, err := f.Ledger.ListIncoming(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, in)
	out, err := f.Ledger.ListOutgoing(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolve_AcceptKeepsListed(t *testing.T) {
	f := newFixture(t, "24000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)

	got, err := f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, got.Status)
	assert.False(t, got.DeletedAt.Valid)

	in, err := f.Ledger.ListIncoming(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, domain.StatusAccepted, in[0].Status)

	out, err := f.Ledger.ListOutgoing(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.StatusAccepted, out[0].Status)

	// A reusable code stays live after accept.
	owner, err := f.Registry.IsCodeActive(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestResolve_Guards(t *testing.T) {
	f := newFixture(t, "25000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)

	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", "maybe")
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = f.Ledger.Resolve(ctx, r.ID, "bob", domain.ActionAccept)
	assert.ErrorIs(t, err, ErrUnauthorized, "requester cannot resolve their own request")

	_, err = f.Ledger.Resolve(ctx, "missing", "alice", domain.ActionAccept)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionAccept)
	require.NoError(t, err)

	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionAccept)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionDecline)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

func TestResolve_DeclinedCannotBeAccepted(t *testing.T) {
	f := newFixture(t, "26000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)

	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionDecline)
	require.NoError(t, err)
	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionAccept)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
}

// ---------- end to end ----------

func TestOneTimeCode_EndToEnd_RetiredOnAccept(t *testing.T) {
	f := newFixture(t, "12345678")
	ctx := context.Background()

	code, err := f.Registry.Generate(ctx, "A", true, 24)
	require.NoError(t, err)
	require.Equal(t, "12345678", code.Code)

	r, err := f.Ledger.Create(ctx, "B", "12345678")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, r.Status)

	got, err := f.Ledger.Resolve(ctx, r.ID, "A", domain.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, got.Status)

	_, err = f.Ledger.Create(ctx, "C", "12345678")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	// B's accepted request survives the code's retirement.
	out, err := f.Ledger.ListOutgoing(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, idsOf(out))

	assert.Equal(t, []string{
		EventRequestCreated + "@A",
		EventRequestResolved + "@B",
		EventCodeRetired + "@A",
	}, f.Notifier.kinds())
}

func TestOneTimeCode_EndToEnd_InformationalWhenRetireDisabled(t *testing.T) {
	f := newFixture(t, "12345678")
	f.Ledger.RetireOneTimeOnAccept = false
	ctx := context.Background()

	_, err := f.Registry.Generate(ctx, "A", true, 24)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "B", "12345678")
	require.NoError(t, err)
	_, err = f.Ledger.Resolve(ctx, r.ID, "A", domain.ActionAccept)
	require.NoError(t, err)

	c, err := f.Ledger.Create(ctx, "C", "12345678")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, c.Status)
}

func TestOneTimeCode_DeclineKeepsCodeLive(t *testing.T) {
	f := newFixture(t, "27000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "A", true, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "B", code.Code)
	require.NoError(t, err)
	_, err = f.Ledger.Resolve(ctx, r.ID, "A", domain.ActionDecline)
	require.NoError(t, err)

	_, err = f.Ledger.Create(ctx, "C", code.Code)
	require.NoError(t, err)
}

// ---------- listings / lookups ----------

func TestListIncomingOutgoing_InsertionOrder(t *testing.T) {
	f := newFixture(t, "28000001", "28000002")
	ctx := context.Background()
	a, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	b, err := f.Registry.Generate(ctx, "bob", false, 0)
	require.NoError(t, err)

	r1, err := f.Ledger.Create(ctx, "carol", a.Code)
	require.NoError(t, err)
	f.Clock.Advance(time.Second)
	r2, err := f.Ledger.Create(ctx, "dave", a.Code)
	require.NoError(t, err)
	f.Clock.Advance(time.Second)
	r3, err := f.Ledger.Create(ctx, "carol", b.Code)
	require.NoError(t, err)

	in, err := f.Ledger.ListIncoming(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID, r2.ID}, idsOf(in))

	out, err := f.Ledger.ListOutgoing(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{r1.ID, r3.ID}, idsOf(out))

	none, err := f.Ledger.ListIncoming(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFindOutgoingForCode(t *testing.T) {
	f := newFixture(t, "29000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)

	_, err = f.Ledger.FindOutgoingForCode(ctx, "bob", code.Code)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.Ledger.FindOutgoingForCode(ctx, "bob", "bad")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = f.Ledger.FindOutgoingForCode(ctx, "bob", "99999999")
	assert.ErrorIs(t, err, ErrCodeNotFound)

	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)
	got, err := f.Ledger.FindOutgoingForCode(ctx, "bob", code.Code)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	// Found by digits although bob does not own the code; never another user's request.
	_, err = f.Ledger.FindOutgoingForCode(ctx, "carol", code.Code)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.Ledger.FindOutgoingForCode(ctx, "alice", code.Code)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRequestStats(t *testing.T) {
	f := newFixture(t, "30000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	_, err = f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)

	n, _, err := f.Ledger.IncomingStats(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, _, err = f.Ledger.OutgoingStats(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestGet_VisibleToParticipantsOnly(t *testing.T) {
	f := newFixture(t, "32000001")
	ctx := context.Background()
	code, err := f.Registry.Generate(ctx, "alice", false, 0)
	require.NoError(t, err)
	r, err := f.Ledger.Create(ctx, "bob", code.Code)
	require.NoError(t, err)
	_, err = f.Ledger.Resolve(ctx, r.ID, "alice", domain.ActionDecline)
	require.NoError(t, err)

	for _, who := range []string{"alice", "bob"} {
		got, err := f.Ledger.Get(ctx, who, r.ID)
		require.NoError(t, err, who)
		assert.Equal(t, domain.StatusDeclined, got.Status)
	}
	_, err = f.Ledger.Get(ctx, "mallory", r.ID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
	_, err = f.Ledger.Get(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
