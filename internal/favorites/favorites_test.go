package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/mvx/internal/accounts"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
	tu "github.com/desertthunder/mvx/internal/testing"
)

var (
	batman = models.Movie{ID: 155, Title: "The Dark Knight", PosterPath: "/dk.jpg"}
	fight  = models.Movie{ID: 550, Title: "Fight Club", PosterPath: "/fc.jpg"}
)

type fixture struct {
	kv         storage.Store
	accounts   *accounts.Service
	reconciler *Reconciler
	provider   *tu.MockProvider
}

func setup(t *testing.T, cfg shared.FavoritesConfig) fixture {
	t.Helper()

	kv := storage.NewMemoryStore()
	accts := accounts.NewService(kv, session.New(kv, nil), nil)
	if _, err := accts.Register(models.Candidate{Username: "alice", Password: "pw123", Name: "Alice"}); err != nil {
		t.Fatalf("failed to register: %v", err)
	}

	provider := tu.NewMockProvider("req-1", "sess-1")
	return fixture{
		kv:         kv,
		accounts:   accts,
		reconciler: NewReconciler(kv, accts, provider, cfg, nil),
		provider:   provider,
	}
}

func ids(movies []models.Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	alice := models.Local("alice")

	t.Run("batman scenario", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})

		got, err := f.reconciler.Toggle(ctx, alice, batman)
		if err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}
		if !equalIDs(ids(got), []int{155}) {
			t.Errorf("expected [155], got %v", ids(got))
		}

		got, err = f.reconciler.Toggle(ctx, alice, batman)
		if err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty favorites, got %v", ids(got))
		}

		profile, _ := f.accounts.Profile("alice")
		if len(profile.Favorites) != 0 {
			t.Errorf("expected profile favorites to be empty, got %v", ids(profile.Favorites))
		}
	})

	t.Run("parity without duplicates", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_, _ = f.reconciler.Toggle(ctx, alice, fight)

		for n := 1; n <= 5; n++ {
			got, err := f.reconciler.Toggle(ctx, alice, batman)
			if err != nil {
				t.Fatalf("toggle %d failed: %v", n, err)
			}

			count := 0
			for _, m := range got {
				if m.ID == batman.ID {
					count++
				}
			}
			want := n % 2
			if count != want {
				t.Errorf("after %d toggles expected %d copies, got %d", n, want, count)
			}
			if got[0].ID != fight.ID {
				t.Errorf("insertion order changed: %v", ids(got))
			}
		}
	})

	t.Run("round trip through load", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})

		_, _ = f.reconciler.Toggle(ctx, alice, fight)
		_, _ = f.reconciler.Toggle(ctx, alice, batman)

		got, err := f.reconciler.Load(ctx, alice)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !equalIDs(ids(got), []int{550, 155}) {
			t.Errorf("expected [550 155], got %v", ids(got))
		}
	})

	t.Run("no identity leaves store untouched", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		before, _, _ := f.kv.Get(accounts.UsersKey)

		if _, err := f.reconciler.Toggle(ctx, models.Identity{}, batman); !errors.Is(err, shared.ErrMissingIdentity) {
			t.Fatalf("expected ErrMissingIdentity, got %v", err)
		}

		after, _, _ := f.kv.Get(accounts.UsersKey)
		if string(before) != string(after) {
			t.Error("store changed without an identity")
		}
	})

	t.Run("add and remove helpers", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})

		_, _ = f.reconciler.Add(ctx, alice, batman)
		got, _ := f.reconciler.Add(ctx, alice, batman)
		if len(got) != 1 {
			t.Errorf("adding twice should keep one entry, got %v", ids(got))
		}

		ok, err := f.reconciler.Contains(ctx, alice, batman.ID)
		if err != nil || !ok {
			t.Errorf("expected favorite to be present, got %v (err=%v)", ok, err)
		}

		got, _ = f.reconciler.Remove(ctx, alice, batman.ID)
		if len(got) != 0 {
			t.Errorf("expected empty favorites, got %v", ids(got))
		}
		got, _ = f.reconciler.Remove(ctx, alice, batman.ID)
		if len(got) != 0 {
			t.Errorf("removing a missing movie should be a no-op, got %v", ids(got))
		}
	})
}

func TestLegacyMigration(t *testing.T) {
	ctx := context.Background()
	alice := models.Local("alice")

	t.Run("migrates once and deletes the cache", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_ = f.kv.Set(LegacyKey("alice"), []byte(`[550, 155, 550]`))

		first, err := f.reconciler.Load(ctx, alice)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !equalIDs(ids(first), []int{550, 155}) {
			t.Errorf("expected [550 155], got %v", ids(first))
		}
		if _, ok, _ := f.kv.Get(LegacyKey("alice")); ok {
			t.Error("legacy cache should be deleted after migration")
		}

		second, _ := f.reconciler.Load(ctx, alice)
		if !equalIDs(ids(first), ids(second)) {
			t.Errorf("migration is not idempotent: %v then %v", ids(first), ids(second))
		}

		profile, _ := f.accounts.Profile("alice")
		if !equalIDs(ids(profile.Favorites), []int{550, 155}) {
			t.Errorf("expected profile to hold migrated favorites, got %v", ids(profile.Favorites))
		}
	})

	t.Run("profile wins over cache", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_, _ = f.reconciler.Toggle(ctx, alice, fight)
		_ = f.kv.Set(LegacyKey("alice"), []byte(`[155]`))

		got, _ := f.reconciler.Load(ctx, alice)
		if !equalIDs(ids(got), []int{550}) {
			t.Errorf("expected profile favorites [550], got %v", ids(got))
		}
	})

	t.Run("emptied list does not resurrect cache", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_ = f.kv.Set(LegacyKey("alice"), []byte(`[{"id":155,"title":"The Dark Knight"}]`))

		_, _ = f.reconciler.Toggle(ctx, alice, batman)

		got, _ := f.reconciler.Load(ctx, alice)
		if len(got) != 0 {
			t.Errorf("expected empty favorites, got %v", ids(got))
		}
	})

	t.Run("unreadable cache is ignored", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_ = f.kv.Set(LegacyKey("alice"), []byte(`{broken`))

		got, err := f.reconciler.Load(ctx, alice)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty favorites, got %v (err=%v)", ids(got), err)
		}
	})

	t.Run("write-through keeps both copies equal", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{LegacyWriteThrough: true})

		_, _ = f.reconciler.Toggle(ctx, alice, fight)
		_, _ = f.reconciler.Toggle(ctx, alice, batman)
		_, _ = f.reconciler.Toggle(ctx, alice, fight)

		var legacy []models.Movie
		if ok, err := storage.GetJSON(f.kv, LegacyKey("alice"), &legacy); !ok || err != nil {
			t.Fatalf("expected legacy cache, got ok=%v err=%v", ok, err)
		}
		profile, _ := f.accounts.Profile("alice")
		if !equalIDs(ids(legacy), ids(profile.Favorites)) {
			t.Errorf("legacy %v differs from profile %v", ids(legacy), ids(profile.Favorites))
		}
	})

	t.Run("unknown user reads cache only", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_ = f.kv.Set(LegacyKey("ghost"), []byte(`[550]`))

		got, err := f.reconciler.Load(ctx, models.Local("ghost"))
		if err != nil || !equalIDs(ids(got), []int{550}) {
			t.Errorf("expected [550], got %v (err=%v)", ids(got), err)
		}
		if _, ok, _ := f.kv.Get(LegacyKey("ghost")); !ok {
			t.Error("cache without a profile should be kept")
		}
	})
}

func TestExternalFavorites(t *testing.T) {
	ctx := context.Background()
	external := models.External("sess-1")

	t.Run("load from provider without local merge", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		_, _ = f.reconciler.Toggle(ctx, models.Local("alice"), fight)
		f.provider.SetFavorites([]models.Movie{batman})

		got, err := f.reconciler.Load(ctx, external)
		if err != nil {
			t.Fatalf("failed to load: %v", err)
		}
		if !equalIDs(ids(got), []int{155}) {
			t.Errorf("expected provider favorites only, got %v", ids(got))
		}
	})

	t.Run("toggle marks on provider", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})

		got, err := f.reconciler.Toggle(ctx, external, batman)
		if err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}
		if !equalIDs(ids(got), []int{155}) {
			t.Errorf("expected [155], got %v", ids(got))
		}

		got, _ = f.reconciler.Toggle(ctx, external, batman)
		if len(got) != 0 {
			t.Errorf("expected empty favorites, got %v", ids(got))
		}
		if f.provider.FavoriteCalls() != 2 {
			t.Errorf("expected 2 provider writes, got %d", f.provider.FavoriteCalls())
		}

		profile, _ := f.accounts.Profile("alice")
		if len(profile.Favorites) != 0 {
			t.Error("external toggles must not touch local profiles")
		}
	})

	t.Run("series marked with their media type", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		series := models.Movie{ID: 1396, Title: "Breaking Bad", MediaType: models.MediaSeries}

		if _, err := f.reconciler.Toggle(ctx, external, series); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}
		if _, err := f.reconciler.Toggle(ctx, external, batman); err != nil {
			t.Fatalf("failed to toggle: %v", err)
		}

		got := f.provider.MarkedTypes()
		if len(got) != 2 || got[0] != "tv" || got[1] != "movie" {
			t.Errorf("expected [tv movie], got %v", got)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		f.provider.FavoritesErr = shared.ErrNetworkFailure

		if _, err := f.reconciler.Load(ctx, external); !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})

	t.Run("no provider configured", func(t *testing.T) {
		f := setup(t, shared.FavoritesConfig{})
		r := NewReconciler(f.kv, f.accounts, nil, shared.FavoritesConfig{}, nil)

		if _, err := r.Load(ctx, external); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
