package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/internal/session"
	"github.com/pitabwire/ucomparison/internal/state"
	"github.com/pitabwire/ucomparison/model"
)

// maxActionBody bounds the size of a dispatched action.
const maxActionBody = 1 << 20

// ActionRequest is the body of POST /ui/sessions/{sessionId}/actions.
type ActionRequest struct {
	Kind    state.ActionKind `json:"kind"`
	Payload json.RawMessage  `json:"payload,omitempty"`
}

func handleGetConfiguration(registry *definition.Registry, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := registry.Current()
		if ds == nil {
			WriteRequestError(w, r, model.NewDataNotLoadedError())
			return
		}

		var st *state.State
		if id := r.URL.Query().Get("session_id"); id != "" {
			snap, err := sessions.Get(r.Context(), id)
			if err != nil {
				WriteRequestError(w, r, err)
				return
			}
			st = snap.State
		}
		WriteJSON(w, http.StatusOK, state.DescribeConfiguration(ds, st))
	}
}

func handleCreateSession(registry *definition.Registry, sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := sessions.Create(r.Context(), registry.Current(), r.URL.RawQuery)
		if err != nil {
			WriteRequestError(w, r, err)
			return
		}
		tagSession(r, snap.ID)
		w.Header().Set("Location", "/ui/sessions/"+snap.ID)
		WriteJSON(w, http.StatusCreated, snap.View())
	}
}

func handleGetSession(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionId")
		tagSession(r, id)

		snap, err := sessions.Get(r.Context(), id)
		if err != nil {
			WriteRequestError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap.View())
	}
}

func handleDispatch(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionId")
		tagSession(r, id)

		var req ActionRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBody)).Decode(&req); err != nil {
			WriteRequestError(w, r, model.NewBadRequestError("invalid action body: "+err.Error()))
			return
		}
		if req.Kind == "" {
			WriteRequestError(w, r, model.NewValidationError([]model.FieldError{
				{Field: "kind", Code: "REQUIRED", Message: "kind is required"},
			}))
			return
		}

		action, err := state.DecodeAction(req.Kind, req.Payload)
		if err != nil {
			if errors.Is(err, state.ErrUnknownAction) {
				WriteRequestError(w, r, model.NewUnknownActionError(string(req.Kind)))
				return
			}
			WriteRequestError(w, r, model.NewBadRequestError(err.Error()))
			return
		}

		snap, err := sessions.Dispatch(r.Context(), id, action)
		if err != nil {
			WriteRequestError(w, r, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap.View())
	}
}

func handleDeleteSession(sessions *session.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "sessionId")
		tagSession(r, id)

		if err := sessions.Delete(r.Context(), id); err != nil {
			WriteRequestError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetEntity(registry *definition.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := registry.Current()
		if ds == nil {
			WriteRequestError(w, r, model.NewDataNotLoadedError())
			return
		}

		raw := chi.URLParam(r, "index")
		i, err := strconv.Atoi(raw)
		if err != nil {
			WriteRequestError(w, r, model.NewBadRequestError("entity index must be an integer"))
			return
		}
		desc, ok := state.DescribeEntity(ds, i)
		if !ok {
			WriteRequestError(w, r, model.NewNotFoundError("entity "+raw+" not found"))
			return
		}
		WriteJSON(w, http.StatusOK, desc)
	}
}

// tagSession records the session ID on the request for logging.
func tagSession(r *http.Request, id string) {
	if rctx := model.RequestContextFrom(r.Context()); rctx != nil {
		rctx.SessionID = id
	}
}
