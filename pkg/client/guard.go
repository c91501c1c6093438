package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gurkanbulca/neighborhelp/pkg/api"
	"github.com/gurkanbulca/neighborhelp/pkg/lifecycle"
)

// User-facing messages shown by the guard.
const (
	MsgDeleteNotOpen   = "You can only delete an 'OPEN' task."
	MsgEditNotOpen     = "You can only edit an 'OPEN' task."
	MsgAlreadyComplete = "You have already marked the task as complete."
	MsgSelfHelp        = "You cannot complete a task published by yourself! The task will now be removed from the system!"
	MsgAlreadyVerified = "The task has already been verified."
	MsgNotFinished     = "The helper has not marked the task as complete yet."
	MsgClaimNotOpen    = "This task is no longer open."
	MsgAlreadyClaimed  = "Task has already been claimed by another helper."
	MsgStale           = "The task was changed by someone else. Please reload and try again."

	ConfirmDelete   = "Are you sure that you want to delete the task?"
	ConfirmComplete = "Are you sure that you have already completed the task?"
	ConfirmAbandon  = "Are you sure that you want to abandon the task?"
	ConfirmVerify   = "Are you sure that the task has been completed?"
	ConfirmClaim    = "Are you sure that you want to help out with this task?"
)

// Prompter shows alerts and asks yes/no questions.
type Prompter interface {
	Alert(msg string)
	Confirm(msg string) bool
}

// Navigator moves the user to another view.
type Navigator interface {
	Redirect(path string)
}

// Guard checks the current state of a task before every status-changing
// request and refuses illegal actions locally.
type Guard struct {
	api    *Client
	prompt Prompter
	nav    Navigator
	logger *zap.Logger
}

func NewGuard(c *Client, prompt Prompter, nav Navigator, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{api: c, prompt: prompt, nav: nav, logger: logger}
}

// EditForm is a task's editable fields as read just before editing.
type EditForm struct {
	Key string
	api.TaskForm
}

// refuse alerts msg and reports a precondition failure.
func (g *Guard) refuse(msg string) error {
	g.prompt.Alert(msg)
	return fmt.Errorf("%w: %s", ErrPrecondition, msg)
}

func (g *Guard) fresh(ctx context.Context, key string) (*api.Task, lifecycle.Status, error) {
	task, err := g.api.Task(ctx, key)
	if err != nil {
		return nil, "", err
	}
	status, err := lifecycle.ParseStatus(task.Status)
	if err != nil {
		return nil, "", err
	}
	return task, status, nil
}

func (g *Guard) Delete(ctx context.Context, key string) error {
	_, status, err := g.fresh(ctx, key)
	if err != nil {
		return err
	}
	if !lifecycle.CanDelete(status) {
		return g.refuse(MsgDeleteNotOpen)
	}
	if !g.prompt.Confirm(ConfirmDelete) {
		return ErrCancelled
	}
	if err := g.api.DeleteTask(ctx, key); err != nil {
		return g.lost(err)
	}
	g.purge(ctx, key)
	return nil
}

// Edit returns the current editable fields of an open task.
func (g *Guard) Edit(ctx context.Context, key string) (*EditForm, error) {
	task, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanEdit(status) {
		return nil, g.refuse(MsgEditNotOpen)
	}
	return &EditForm{
		Key: task.KeyString,
		TaskForm: api.TaskForm{
			Category: task.Category,
			Overview: task.Overview,
			Detail:   task.Detail,
			Reward:   task.Reward,
			Version:  task.Version,
		},
	}, nil
}

// SubmitEdit sends an edited form. Ownership is checked by the server only.
func (g *Guard) SubmitEdit(ctx context.Context, form *EditForm) (*api.Task, error) {
	task, err := g.api.EditTask(ctx, form.Key, form.TaskForm)
	if err != nil {
		return nil, g.lost(err)
	}
	return task, nil
}

// Complete marks a task as done by its helper. A task whose owner is also
// its helper is reopened and removed instead.
func (g *Guard) Complete(ctx context.Context, key string) (*api.Task, error) {
	task, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanComplete(status) {
		return nil, g.refuse(MsgAlreadyComplete)
	}
	if task.Helper != "" && task.Owner == task.Helper {
		g.prompt.Alert(MsgSelfHelp)
		if _, err := g.api.Transition(ctx, key, lifecycle.StatusOpen, task.Version); err != nil {
			return nil, g.rejected(g.lost(err), MsgAlreadyComplete)
		}
		if err := g.api.DeleteTask(ctx, key); err != nil {
			return nil, g.lost(err)
		}
		return nil, fmt.Errorf("%w: task removed", ErrPrecondition)
	}
	if !g.prompt.Confirm(ConfirmComplete) {
		return nil, ErrCancelled
	}
	return g.transition(ctx, task, lifecycle.StatusAwaitVerification, false, MsgAlreadyComplete)
}

// Abandon hands an in-progress task back to the feed.
func (g *Guard) Abandon(ctx context.Context, key string) (*api.Task, error) {
	task, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanAbandon(status) {
		return nil, g.refuse(MsgAlreadyComplete)
	}
	if !g.prompt.Confirm(ConfirmAbandon) {
		return nil, ErrCancelled
	}
	return g.transition(ctx, task, lifecycle.StatusOpen, true, MsgAlreadyComplete)
}

func (g *Guard) Verify(ctx context.Context, key string) (*api.Task, error) {
	task, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanVerify(status) {
		return nil, g.refuse(MsgAlreadyVerified)
	}
	if !g.prompt.Confirm(ConfirmVerify) {
		return nil, ErrCancelled
	}
	return g.transition(ctx, task, lifecycle.StatusComplete, true, MsgNotFinished)
}

// Disapprove sends a finished task back to its helper.
func (g *Guard) Disapprove(ctx context.Context, key string) (*api.Task, error) {
	task, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanDisapprove(status) {
		return nil, g.refuse(MsgAlreadyVerified)
	}
	return g.transition(ctx, task, lifecycle.StatusInProgress, false, MsgNotFinished)
}

// Claim takes an open task. Losing the race to another helper alerts and
// redirects home. It is never retried.
func (g *Guard) Claim(ctx context.Context, key string) (*api.Task, error) {
	_, status, err := g.fresh(ctx, key)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanClaim(status) {
		return nil, g.refuse(MsgClaimNotOpen)
	}
	if !g.prompt.Confirm(ConfirmClaim) {
		return nil, ErrCancelled
	}
	task, err := g.api.Claim(ctx, key)
	if err != nil {
		if isConflict(err) {
			g.prompt.Alert(MsgAlreadyClaimed)
			g.nav.Redirect("/")
			return nil, fmt.Errorf("%w: %w", ErrAlreadyClaimed, err)
		}
		return nil, err
	}
	return task, nil
}

// transition sends the status change. refusal is alerted when the server
// rejects the change for the task's current state.
func (g *Guard) transition(ctx context.Context, task *api.Task, to lifecycle.Status, purge bool, refusal string) (*api.Task, error) {
	updated, err := g.api.Transition(ctx, task.KeyString, to, task.Version)
	if err != nil {
		return nil, g.rejected(g.lost(err), refusal)
	}
	if purge {
		g.purge(ctx, task.KeyString)
	}
	return updated, nil
}

// lost turns a 409 into ErrStale after telling the user.
func (g *Guard) lost(err error) error {
	if !isConflict(err) {
		return err
	}
	g.prompt.Alert(MsgStale)
	return fmt.Errorf("%w: %w", ErrStale, err)
}

// rejected turns a 422 into ErrRejected after alerting msg.
func (g *Guard) rejected(err error, msg string) error {
	if !isIllegal(err) {
		return err
	}
	g.prompt.Alert(msg)
	return fmt.Errorf("%w: %w", ErrRejected, err)
}

// purge asks the server to drop a task's chat. The result is ignored.
func (g *Guard) purge(ctx context.Context, key string) {
	if err := g.api.PurgeMessages(ctx, key); err != nil {
		g.logger.Debug("message purge failed", zap.String("task", key), zap.Error(err))
	}
}

// IsRefused reports whether err came from a precondition check, local or on
// the server, or a declined confirmation.
func IsRefused(err error) bool {
	return errors.Is(err, ErrPrecondition) || errors.Is(err, ErrCancelled) || errors.Is(err, ErrRejected)
}
