package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCommand_Subcommands(t *testing.T) {
	cmd := newCommand()

	var names []string
	for _, sub := range cmd.Commands {
		names = append(names, sub.Name)
	}
	assert.Equal(t, []string{"complete", "resolve", "accept", "providers", "config"}, names)
}

func TestComplete_NeedsArguments(t *testing.T) {
	err := newCommand().Run(context.Background(), []string{"suggest", "complete", "main.go"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE and LINE:COLUMN")
}

func TestResolveAndAccept_ItemArgument(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"suggest", "resolve", "main.go", "1:1"}, want: "FILE, LINE:COLUMN and N"},
		{args: []string{"suggest", "accept", "main.go", "1:1", "x"}, want: "invalid item number"},
		{args: []string{"suggest", "accept", "main.go", "1:1", "0"}, want: "invalid item number"},
	}
	for _, tt := range tests {
		t.Run(tt.args[1]+"/"+tt.want, func(t *testing.T) {
			err := newCommand().Run(context.Background(), tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
