package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pitabwire/ucomparison/model"
)

// ActionKind names an action in the external vocabulary.
type ActionKind string

// The action vocabulary.
const (
	KindDataLoaded      ActionKind = "DATA_LOADED"
	KindSearchUpdated   ActionKind = "SEARCH_UPDATED"
	KindOrderChanged    ActionKind = "ORDER_CHANGED"
	KindSettingsChanged ActionKind = "SETTINGS_CHANGED"
	KindRouteChanged    ActionKind = "ROUTE_CHANGED"
)

// Action is a message consumed by Reduce.
type Action interface {
	Kind() ActionKind
}

// DataLoaded delivers a loaded configuration and its entities.
type DataLoaded struct {
	Dataset *model.Dataset
}

// SearchUpdated replaces the term lists of the given criteria keys. An empty
// list clears that key's search.
type SearchUpdated struct {
	Search map[string][]string `json:"search"`
}

// OrderChanged is a click on a visible column header.
type OrderChanged struct {
	ColumnIndex  int  `json:"column_index"`
	ModifierHeld bool `json:"modifier_held"`
}

// SettingsOperation tags a SettingsChanged action.
type SettingsOperation string

// Settings operations. Value is a criteria index for column, an entity
// index for element and details; Enable nil toggles.
const (
	OpColumn         SettingsOperation = "column"
	OpColumnsAll     SettingsOperation = "columns_all"
	OpElement        SettingsOperation = "element"
	OpElementsAll    SettingsOperation = "elements_all"
	OpMaximize       SettingsOperation = "maximize"
	OpDetails        SettingsOperation = "details"
	OpLatexTable     SettingsOperation = "latex_table"
	OpLatexEnumerate SettingsOperation = "latex_enumerate"
	OpLatexTooltips  SettingsOperation = "latex_tooltips"
)

// SettingsChanged toggles column, row, or display settings.
type SettingsChanged struct {
	Operation SettingsOperation `json:"operation"`
	Value     *int              `json:"value,omitempty"`
	Enable    *bool             `json:"enable,omitempty"`
}

// RouteChanged carries the decoded query parameters of a navigation.
type RouteChanged struct {
	QueryParams map[string]string `json:"query_params"`
}

func (DataLoaded) Kind() ActionKind      { return KindDataLoaded }
func (SearchUpdated) Kind() ActionKind   { return KindSearchUpdated }
func (OrderChanged) Kind() ActionKind    { return KindOrderChanged }
func (SettingsChanged) Kind() ActionKind { return KindSettingsChanged }
func (RouteChanged) Kind() ActionKind    { return KindRouteChanged }

// ErrUnknownAction is returned by DecodeAction for kinds it cannot build.
var ErrUnknownAction = errors.New("unknown action")

// DecodeAction builds a client-dispatchable action from its kind and JSON
// payload. DATA_LOADED is server-side only and is rejected.
func DecodeAction(kind ActionKind, payload json.RawMessage) (Action, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	var (
		action Action
		err    error
	)
	switch kind {
	case KindSearchUpdated:
		var a SearchUpdated
		err = json.Unmarshal(payload, &a)
		action = a
	case KindOrderChanged:
		var a OrderChanged
		err = json.Unmarshal(payload, &a)
		action = a
	case KindSettingsChanged:
		var a SettingsChanged
		err = json.Unmarshal(payload, &a)
		action = a
	case KindRouteChanged:
		var a RouteChanged
		err = json.Unmarshal(payload, &a)
		action = a
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownAction, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", kind, err)
	}
	return action, nil
}
