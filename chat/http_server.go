package chat

import (
	"io"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/parleyhq/parley"
	"github.com/parleyhq/parley/kit/platform"
	kithttp "github.com/parleyhq/parley/kit/transport/http"
	"go.uber.org/zap"
)

// Header names carrying the response correlation data of a streamed answer.
// They are set before the first body byte so the caller can register the
// pending message while chunks are still arriving.
const (
	HeaderMessageID = "X-Message-Id"
	HeaderModel     = "X-Model"
)

// ChatHandler is the HTTP API for conversations and message streaming.
type ChatHandler struct {
	chi.Router
	api *kithttp.API
	log *zap.Logger

	svc parley.ConversationService
}

const prefixConversations = "/api/v1/conversations"

// Prefix returns the mount point of the chat handler.
func (h *ChatHandler) Prefix() string {
	return prefixConversations
}

// NewHTTPChatHandler constructs a new http server.
func NewHTTPChatHandler(log *zap.Logger, svc parley.ConversationService) *ChatHandler {
	svr := &ChatHandler{
		api: kithttp.NewAPI(kithttp.WithLog(log)),
		log: log,
		svc: svc,
	}

	r := chi.NewRouter()
	r.Post("/", svr.handlePostConversation)
	r.Get("/", svr.handleGetConversations)
	r.Get("/{id}", svr.handleGetConversation)
	r.Get("/{id}/messages", svr.handleGetMessages)
	r.Post("/{id}/messages", svr.handlePostMessage)
	r.Get("/{id}/messages/{messageID}/sources", svr.handleGetMessageSources)

	svr.Router = r
	return svr
}

type postConversationRequest struct {
	Title string `json:"title,omitempty"`
}

func (h *ChatHandler) handlePostConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// the body is optional; a bare POST opens an untitled conversation
	var body postConversationRequest
	if r.ContentLength != 0 {
		if err := h.api.DecodeJSON(r.Body, &body); err != nil {
			h.api.Err(w, r, err)
			return
		}
	}

	c := &parley.Conversation{Title: body.Title}
	if err := h.svc.CreateConversation(ctx, c); err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusCreated, c)
}

func (h *ChatHandler) handleGetConversations(w http.ResponseWriter, r *http.Request) {
	cs, err := h.svc.FindConversations(r.Context())
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, cs)
}

func (h *ChatHandler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := h.decodeID(r, "id")
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	c, err := h.svc.FindConversationByID(r.Context(), id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, c)
}

func (h *ChatHandler) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	id, err := h.decodeID(r, "id")
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	ms, err := h.svc.ListMessages(r.Context(), id)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, ms)
}

func (h *ChatHandler) handleGetMessageSources(w http.ResponseWriter, r *http.Request) {
	id, err := h.decodeID(r, "id")
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	messageID, err := h.decodeID(r, "messageID")
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	ms, err := h.svc.FindMessageSources(r.Context(), id, messageID)
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	h.api.Respond(w, r, http.StatusOK, ms)
}

type postMessageRequest struct {
	Content          string `json:"content"`
	Model            string `json:"model,omitempty"`
	IsBreadth        bool   `json:"isBreadth"`
	RerankEnabled    bool   `json:"rerankEnabled"`
	PrioritizeRecent bool   `json:"prioritizeRecent"`
}

// handlePostMessage is the HTTP handler for the POST
// /api/v1/conversations/{id}/messages route. The response is the assistant
// answer streamed as plain text chunks, with the message id and resolved
// model in the headers.
func (h *ChatHandler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := h.decodeID(r, "id")
	if err != nil {
		h.api.Err(w, r, err)
		return
	}

	var body postMessageRequest
	if err := h.api.DecodeJSON(r.Body, &body); err != nil {
		h.api.Err(w, r, err)
		return
	}

	stream, err := h.svc.SendMessage(ctx, &parley.SendMessageRequest{
		ConversationID:   id,
		Content:          body.Content,
		Model:            body.Model,
		IsBreadth:        body.IsBreadth,
		RerankEnabled:    body.RerankEnabled,
		PrioritizeRecent: body.PrioritizeRecent,
	})
	if err != nil {
		h.api.Err(w, r, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set(HeaderMessageID, stream.MessageID().String())
	w.Header().Set(HeaderModel, stream.Model())
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			// headers are gone; the best we can do is log and cut the stream
			h.log.Error("answer stream failed", zap.Error(err))
			return
		}

		if _, err := io.WriteString(w, chunk); err != nil {
			h.log.Debug("client went away mid stream", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (h *ChatHandler) decodeID(r *http.Request, param string) (platform.ID, error) {
	id, err := platform.IDFromString(chi.URLParam(r, param))
	if err != nil {
		return platform.InvalidID(), InvalidChatIDError(err)
	}
	return *id, nil
}
