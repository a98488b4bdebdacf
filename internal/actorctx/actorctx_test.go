package actorctx

import (
	"context"
	"testing"
)

func TestUserIDRoundTrip(t *testing.T) {
	if _, ok := UserIDFrom(context.Background()); ok {
		t.Fatalf("empty context should carry no user")
	}

	ctx := WithUserID(context.Background(), 12)
	id, ok := UserIDFrom(ctx)
	if !ok || id != 12 {
		t.Fatalf("got (%d, %v), want (12, true)", id, ok)
	}

	if _, ok := UserIDFrom(WithUserID(context.Background(), 0)); ok {
		t.Fatalf("zero id should not count as a user")
	}
}
