package notify

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/api"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/session"
	"github.com/Shahabul87/alam-lms-sub003/internal/comment/tree"
)

const (
	MsgSessionLoading = "Please wait, your session is still loading"
	MsgSignIn         = "Please sign in to continue"
	MsgForbidden      = "You don't have permission to do that"
	MsgNotFound       = "That comment no longer exists"
	MsgValidation     = "Please check your input"
	MsgRateLimited    = "Too many requests, please slow down"
	MsgNetwork        = "Network error, please check your connection"
	MsgUnknown        = "Something went wrong, please try again"
	MsgMaxDepth       = "Maximum reply depth reached"
)

// FromError maps a failed action to the message shown to the user.
func FromError(err error) Notification {
	switch {
	case errors.Is(err, session.ErrSessionLoading):
		return Notification{Level: LevelWarning, Message: MsgSessionLoading}
	case errors.Is(err, session.ErrSignInRequired):
		return Failure(MsgSignIn)
	case errors.Is(err, tree.ErrMaxDepth):
		return Failure(MsgMaxDepth)
	case errors.Is(err, tree.ErrNotFound):
		return Failure(MsgNotFound)
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return Failure(MsgUnknown)
	}

	switch apiErr.Kind {
	case api.KindAuthRequired:
		return Failure(MsgSignIn)
	case api.KindForbidden:
		return Failure(MsgForbidden)
	case api.KindNotFound:
		return Failure(MsgNotFound)
	case api.KindValidation:
		if apiErr.Message != "" {
			return Failure(MsgValidation + ": " + apiErr.Message)
		}
		return Failure(MsgValidation)
	case api.KindRateLimited:
		if rl := apiErr.RateLimit; rl != nil {
			if wait := time.Until(rl.ResetAt); wait > 0 {
				secs := int(math.Ceil(wait.Seconds()))
				return Failure(fmt.Sprintf("%s, try again in %ds", MsgRateLimited, secs))
			}
		}
		return Failure(MsgRateLimited)
	case api.KindNetwork:
		return Failure(MsgNetwork)
	}
	return Failure(MsgUnknown)
}
