package cli_test

import (
	"context"
	"testing"

	"github.com/aretw0/fold/internal/cli"
	"github.com/stretchr/testify/assert"
)

func TestSignalContext_Cancel(t *testing.T) {
	ctx := cli.NewSignalContext(context.Background())
	ctx.Cancel()

	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.Nil(t, ctx.Signal())
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := cli.NewSignalContext(parent)
	defer ctx.Cancel()

	cancel()
	<-ctx.Done()
	assert.Nil(t, ctx.Signal())
}
