package handler

import (
	"net/http"
	"strconv"
	"strings"

	"lounge/backend/internal/apperror"

	"github.com/gin-gonic/gin"
)

// ReconcileRelations godoc
// @Summary      Repair a user's mirrored friend entries
// @Description  Treats the user's record as authoritative and rewrites each peer's record to match it. Peers the user's record no longer mentions (after a half-applied reject, withdraw or remove) must be named with peer.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Param        peer query     []int false "Peer user IDs to repair as well" collectionFormat(multi)
// @Success      200  {object}  relation.ReconcileReport
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /admin/relations/{id}/reconcile [post]
func (h *Handler) ReconcileRelations(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperror.Invalid("invalid user ID"))
		return
	}

	peers, err := peerIDs(c.QueryArray("peer"))
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.friends.Reconcile(c.Request.Context(), uint(id), peers...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// peerIDs accepts both ?peer=1&peer=2 and ?peer=1,2.
func peerIDs(values []string) ([]uint, error) {
	var ids []uint
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 32)
			if err != nil || id == 0 {
				return nil, apperror.Invalid("invalid peer ID: " + part)
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}
