package testhelper

import (
	"context"

	"github.com/nuforge/ttg-clca-bridge/internal/domain/content"
	"github.com/nuforge/ttg-clca-bridge/pkg/clcaclient"
)

// MockIngestor records every send and replays scripted outcomes.
type MockIngestor struct {
	Sent   []*content.Doc
	Result *clcaclient.IngestResult
	// Errs is consumed one per call when non-empty; a nil slot means success.
	Errs []error
	Err  error
}

func (m *MockIngestor) IngestContent(ctx context.Context, doc *content.Doc) (*clcaclient.IngestResult, error) {
	m.Sent = append(m.Sent, doc)

	var err error
	if len(m.Errs) > 0 {
		err = m.Errs[0]
		m.Errs = m.Errs[1:]
	} else {
		err = m.Err
	}
	if err != nil {
		return nil, err
	}

	result := m.Result
	if result == nil {
		result = &clcaclient.IngestResult{Status: "created", ID: doc.ID}
	}
	return result, nil
}
