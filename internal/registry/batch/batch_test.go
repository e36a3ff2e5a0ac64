package batch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigefgate/internal/registry/batch"
	"sigefgate/internal/registry/documents"
	"sigefgate/internal/session/lifecycle"
	sessionmodels "sigefgate/internal/session/models"
	"sigefgate/pkg/fault"
)

// passthroughRunner executes operations against a fixed session, standing in
// for the lifecycle manager.
type passthroughRunner struct {
	session *sessionmodels.Session
}

func (r *passthroughRunner) Run(ctx context.Context, op lifecycle.Operation) error {
	return op(ctx, r.session)
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error // by parcel id, applies to every kind
}

func (f *fakeFetcher) Fetch(_ context.Context, parcelID string, kind documents.ArtifactKind, _ *sessionmodels.Session) (*documents.Artifact, error) {
	f.mu.Lock()
	f.calls = append(f.calls, parcelID+"/"+string(kind))
	f.mu.Unlock()
	if err, ok := f.fail[parcelID]; ok {
		return nil, err
	}
	return &documents.Artifact{
		ParcelID:    parcelID,
		Kind:        kind,
		ContentType: "text/csv",
		Payload:     []byte("data"),
	}, nil
}

type BatchSuite struct {
	suite.Suite

	fetcher      *fakeFetcher
	orchestrator *batch.Orchestrator
}

func TestBatchSuite(t *testing.T) {
	suite.Run(t, new(BatchSuite))
}

func (s *BatchSuite) SetupTest() {
	s.fetcher = &fakeFetcher{fail: map[string]error{}}
	runner := &passthroughRunner{session: sessionmodels.New()}
	s.orchestrator = batch.New(runner, s.fetcher, batch.WithConcurrency(2))
}

func (s *BatchSuite) TestAllSucceed() {
	ids := []string{"id-1", "id-2", "id-3"}
	kinds := []documents.ArtifactKind{documents.KindVertexTable, documents.KindBoundaryTable}

	result, err := s.orchestrator.Download(context.Background(), ids, kinds)
	s.Require().NoError(err)

	s.Equal(3, result.Total)
	s.Equal(3, result.Succeeded)
	s.Equal(0, result.Failed)
	s.Len(s.fetcher.calls, 6)
	for _, item := range result.Items {
		s.True(item.Succeeded())
		s.Len(item.Artifacts, 2)
	}
}

func (s *BatchSuite) TestCountsComputedOverIdentifiers() {
	failure := fault.New(fault.KindParcelNotFound, "registry", "parcel id-2 does not exist", nil)
	s.fetcher.fail["id-2"] = failure

	result, err := s.orchestrator.Download(context.Background(), []string{"id-1", "id-2", "id-3"},
		[]documents.ArtifactKind{documents.KindVertexTable})
	s.Require().NoError(err)

	s.Equal(3, result.Total)
	s.Equal(2, result.Succeeded)
	s.Equal(1, result.Failed)

	// Per-identifier results keep input order and the original failure.
	s.Equal("id-2", result.Items[1].ParcelID)
	s.Require().Error(result.Items[1].Err)
	s.Equal(fault.KindParcelNotFound, fault.KindOf(result.Items[1].Err))
}

func (s *BatchSuite) TestOneFailureDoesNotAbortOthers() {
	s.fetcher.fail["id-1"] = fault.New(fault.KindRegistry, "registry", "boom", nil)

	result, err := s.orchestrator.Download(context.Background(), []string{"id-1", "id-2"},
		[]documents.ArtifactKind{documents.KindVertexTable, documents.KindMemorial})
	s.Require().NoError(err)

	// Every (identifier, kind) pair is still attempted.
	s.Len(s.fetcher.calls, 4)
	s.Equal(1, result.Succeeded)
	s.Equal(1, result.Failed)
	s.Len(result.Items[1].Artifacts, 2)
}

func (s *BatchSuite) TestPartialKindFailureFailsIdentifier() {
	// id-1 succeeds on the first kind, fails on the second: the identifier
	// counts as failed because not all requested kinds succeeded.
	calls := 0
	s.orchestrator = batch.New(&passthroughRunner{session: sessionmodels.New()}, fetchFunc(
		func(ctx context.Context, parcelID string, kind documents.ArtifactKind, session *sessionmodels.Session) (*documents.Artifact, error) {
			calls++
			if kind == documents.KindMemorial {
				return nil, fault.New(fault.KindRegistry, "registry", "memorial unavailable", nil)
			}
			return &documents.Artifact{ParcelID: parcelID, Kind: kind}, nil
		}))

	result, err := s.orchestrator.Download(context.Background(), []string{"id-1"},
		[]documents.ArtifactKind{documents.KindVertexTable, documents.KindMemorial})
	s.Require().NoError(err)

	s.Equal(2, calls)
	s.Equal(0, result.Succeeded)
	s.Equal(1, result.Failed)
	s.Len(result.Items[0].Artifacts, 1, "successful artifacts before the failure are kept")
	s.Require().Error(result.Items[0].Err)
}

func (s *BatchSuite) TestEmptyKindsDefaultsToAll() {
	result, err := s.orchestrator.Download(context.Background(), []string{"id-1"}, nil)
	s.Require().NoError(err)
	s.Equal(1, result.Succeeded)
	s.Len(result.Items[0].Artifacts, len(documents.Kinds()))
}

func (s *BatchSuite) TestEmptyBatch() {
	result, err := s.orchestrator.Download(context.Background(), nil, nil)
	s.Require().NoError(err)
	s.Equal(0, result.Total)
	s.Empty(result.Items)
}

type fetchFunc func(ctx context.Context, parcelID string, kind documents.ArtifactKind, session *sessionmodels.Session) (*documents.Artifact, error)

func (f fetchFunc) Fetch(ctx context.Context, parcelID string, kind documents.ArtifactKind, session *sessionmodels.Session) (*documents.Artifact, error) {
	return f(ctx, parcelID, kind, session)
}
