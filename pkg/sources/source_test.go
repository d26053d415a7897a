package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/cost-radar/pkg/models/domain"
)

type stubSource struct {
	provider domain.Provider
}

func (s *stubSource) Provider() domain.Provider {
	return s.provider
}

func (s *stubSource) Fetch(_ context.Context) ([]domain.RawRecord, error) {
	return nil, nil
}

func stubFactory(provider domain.Provider) Factory {
	return func(_ context.Context, _ string) (Source, error) {
		return &stubSource{provider: provider}, nil
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("aws", stubFactory("aws")))

	err := r.Register("aws", stubFactory("aws"))
	require.Error(t, err, "duplicate registration is rejected")

	require.Error(t, r.Register("", stubFactory("")))
	require.Error(t, r.Register("azure", nil))
}

func TestRegistry_Create(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("aws", stubFactory("aws")))

	source, err := r.Create(context.Background(), "aws", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Provider("aws"), source.Provider())

	_, err = r.Create(context.Background(), "gcp", "")
	require.Error(t, err, "unregistered provider")
}

func TestRegistry_ListProviders(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("static", stubFactory("static")))
	require.NoError(t, r.Register("aws", stubFactory("aws")))
	require.NoError(t, r.Register("azure", stubFactory("azure")))

	// Sorted regardless of registration order.
	assert.Equal(t, []domain.Provider{"aws", "azure", "static"}, r.ListProviders())
}
