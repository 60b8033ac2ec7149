// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// appendCommand appends its suffix to the string it receives on the chain
// input and emits the result.
type appendCommand struct {
	BaseCommand
	suffix string
}

func newAppendCommand(name string, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *NewBaseCommand(name), suffix: suffix}
}

func (c *appendCommand) Execute(ctx Context) {
	in, _ := ctx.Get(c.GetInputParam()).(string)
	ctx.Add(c.GetOutputParam(), in+c.suffix)
}

// failingCommand records an error and passes its input through, the way the
// tolerant image stages degrade without breaking the pipe.
type failingCommand struct {
	BaseCommand
}

func (c *failingCommand) Execute(ctx Context) {
	ctx.AddError(c.GetName(), errors.New("induced failure"))
	ctx.Add(c.GetOutputParam(), ctx.Get(c.GetInputParam()))
}

func (c *failingCommand) IsExecutable(Context) bool { return true }

func newChainContext(input string) Context {
	ctx := NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(CtxIn, input)
	return ctx
}

func TestChainPipesOutputToNextInput(t *testing.T) {
	chain := NewBaseChain("pipe-chain")
	chain.AddCommand(newAppendCommand("first", "-a"))
	chain.AddCommand(newAppendCommand("second", "-b"))

	ctx := newChainContext("start")
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "start-a-b", ctx.Get(CtxIn))
}

func TestChainStopsAtFirstError(t *testing.T) {
	chain := NewBaseChain("halt-chain")
	chain.AddCommand(newAppendCommand("first", "-a"))
	chain.AddCommand(&failingCommand{BaseCommand: *NewBaseCommand("boom")})
	late := newAppendCommand("late", "-z")
	chain.AddCommand(late)

	ctx := newChainContext("start")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Contains(t, ctx.GetErrors(), "boom")
	// The command after the failure never ran, so its suffix is absent.
	assert.NotContains(t, ctx.Get(CtxIn), "-z")
}

func TestChainContinueOnFailureRunsEveryCommand(t *testing.T) {
	chain := NewBaseChain("tolerant-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(&failingCommand{BaseCommand: *NewBaseCommand("boom")})
	chain.AddCommand(newAppendCommand("late", "-z"))

	ctx := newChainContext("start")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, "start-z", ctx.Get(CtxIn))
}

// captureCommand copies its input to a named context key, the way the
// pipeline commands publish results that must outlive the chain's piping.
type captureCommand struct {
	BaseCommand
	key string
}

func (c *captureCommand) Execute(ctx Context) {
	in := ctx.Get(c.GetInputParam())
	ctx.Add(c.key, in)
	ctx.Add(c.GetOutputParam(), in)
}

func TestChainsNest(t *testing.T) {
	inner := NewBaseChain("inner")
	inner.AddCommand(newAppendCommand("inner-step", "-i"))
	inner.AddCommand(&captureCommand{BaseCommand: *NewBaseCommand("capture"), key: "captured"})

	outer := NewBaseChain("outer")
	outer.AddCommand(newAppendCommand("outer-step", "-o"))
	outer.AddCommand(inner)

	ctx := newChainContext("start")
	outer.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, "start-o-i", ctx.Get("captured"))
}
