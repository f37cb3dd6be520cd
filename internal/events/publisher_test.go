package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher

	err := p.PublishImportCompleted(context.Background(), &ImportCompletedEvent{TenantID: "t"})
	assert.NoError(t, err)
	assert.NotPanics(t, p.Close)
}
