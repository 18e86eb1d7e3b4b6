package ripple

import (
	"context"

	"github.com/roach88/ripple/internal/draft"
	"github.com/roach88/ripple/internal/model"
	"github.com/roach88/ripple/internal/value"
)

type (
	Manager        = model.Manager
	Handle         = model.Handle
	Definition     = model.Definition
	Spec           = model.Spec
	Reducer        = model.Reducer
	Action         = model.Action
	View           = model.View
	Draft          = model.Draft
	ActionContext  = model.ActionContext
	ViewContext    = model.ViewContext
	Descriptor     = model.Descriptor
	Result         = model.Result
	Listener       = model.Listener
	ActionObserver = model.ActionObserver
	Plugin         = model.Plugin
	PluginFactory  = model.PluginFactory
	PluginFunc     = model.PluginFunc
	Option         = model.Option
	Mode           = model.Mode
	Stats          = model.Stats
	Clock          = model.Clock
	ErrorCode      = model.ErrorCode
)

// Errors returned by managers, handles and drafts.
type (
	UnknownActionError      = model.UnknownActionError
	UnknownModelError       = model.UnknownModelError
	UnknownViewError        = model.UnknownViewError
	ManagerDestroyedError   = model.ManagerDestroyedError
	SchedulerFlushError     = model.SchedulerFlushError
	DefinitionMismatchError = model.DefinitionMismatchError
	DefinitionError         = model.DefinitionError
	DepthExceededError      = model.DepthExceededError
	ViewCycleError          = model.ViewCycleError
	StaleDraftError         = draft.StaleDraftError
	KindError               = draft.KindError
)

// Values held in model state.
type (
	Value    = value.Value
	Null     = value.Null
	String   = value.String
	Int      = value.Int
	Float    = value.Float
	Bool     = value.Bool
	Object   = value.Object
	List     = value.List
	Map      = value.Map
	Set      = value.Set
	Path     = value.Path
	Pair     = value.Pair
	MapEntry = value.Entry
)

const (
	ModeDevelopment = model.ModeDevelopment
	ModeProduction  = model.ModeProduction
)

const (
	ErrCodeUnknownAction      = model.ErrCodeUnknownAction
	ErrCodeUnknownModel       = model.ErrCodeUnknownModel
	ErrCodeUnknownView        = model.ErrCodeUnknownView
	ErrCodeDestroyed          = model.ErrCodeDestroyed
	ErrCodeFlush              = model.ErrCodeFlush
	ErrCodeDefinitionMismatch = model.ErrCodeDefinitionMismatch
	ErrCodeInvalidDefinition  = model.ErrCodeInvalidDefinition
	ErrCodeDepthExceeded      = model.ErrCodeDepthExceeded
	ErrCodeViewCycle          = model.ErrCodeViewCycle
	ErrCodeStaleDraft         = model.ErrCodeStaleDraft
	ErrCodeKindMismatch       = model.ErrCodeKindMismatch
)

var ErrSuspendInReducer = model.ErrSuspendInReducer

var (
	DefineModel = model.DefineModel
	MustDefine  = model.MustDefine
	NewManager  = model.NewManager
	NewClock    = model.NewClock
	ParseMode   = model.ParseMode
	CodeOf      = model.CodeOf

	WithLogger   = model.WithLogger
	WithMode     = model.WithMode
	WithStrict   = model.WithStrict
	WithMaxDepth = model.WithMaxDepth
	WithPlugins  = model.WithPlugins
	WithClock    = model.WithClock
)

var (
	IsUnknownActionError      = model.IsUnknownActionError
	IsUnknownModelError       = model.IsUnknownModelError
	IsUnknownViewError        = model.IsUnknownViewError
	IsManagerDestroyedError   = model.IsManagerDestroyedError
	IsSchedulerFlushError     = model.IsSchedulerFlushError
	IsDefinitionMismatchError = model.IsDefinitionMismatchError
	IsDepthExceededError      = model.IsDepthExceededError
	IsViewCycleError          = model.IsViewCycleError
	IsStaleDraftError         = draft.IsStaleDraftError
	IsKindError               = draft.IsKindError
)

var (
	O        = value.O
	ObjectOf = value.ObjectOf
	NewList  = value.NewList
	NewMap   = value.NewMap
	NewSet   = value.NewSet
	P        = value.P
	FromGo   = value.FromGo
	ToGo     = value.ToGo
	Equal    = value.Equal
	Lookup   = value.Lookup
)

// Await runs fn with the manager released and resumes in a fresh turn.
func Await[T any](ac *ActionContext, fn func(ctx context.Context) (T, error)) (T, error) {
	return model.Await(ac, fn)
}
