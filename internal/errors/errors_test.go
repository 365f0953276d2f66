package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPipelineErrorWrapsUnderlying(t *testing.T) {
	underlying := stderrors.New("truncated stream")
	err := New(KindMalformedAsset, "parse object directory", underlying).WithFile("level0")

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "malformed_asset")
	assert.Contains(t, err.Error(), "level0")
	assert.True(t, err.IsRecoverable())
}

func TestNoContainersIsNotRecoverable(t *testing.T) {
	err := New(KindNoContainers, "open", stderrors.New("no archives"))
	assert.False(t, err.IsRecoverable())
}
