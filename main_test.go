package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMainExists(t *testing.T) {
	// main calls cmd.Execute, which exits the process on error, so only
	// check that it exists
	assert.NotNil(t, main)
}
