package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/knowledgebase-backend/internal/http/response"
	"github.com/yungbote/knowledgebase-backend/internal/requestdata"
)

// actorID pulls the authenticated user out of the request context. The
// auth middleware guarantees it is set on protected routes.
func actorID(c *gin.Context) (uuid.UUID, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNoActor)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// ifVersionQuery reads an optional optimistic-lock precondition from the
// "version" query parameter, used on bodyless requests.
func ifVersionQuery(c *gin.Context) (*int, bool) {
	raw := c.Query("version")
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_version", err)
		return nil, false
	}
	return &v, true
}

type handlerError struct{ msg string }

func (e *handlerError) Error() string { return e.msg }

var errNoActor = &handlerError{"no authenticated user in request context"}
