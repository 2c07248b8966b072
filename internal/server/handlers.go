package server

import (
	"net/http"
	"strconv"

	"ad-rewards-go/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.points.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, toUserRecord(currentUser(c)))
}

func (s *Server) handleGetBalance(c *gin.Context) {
	account := s.points.GetBalance(c.Request.Context(), currentUser(c).Id)
	c.JSON(http.StatusOK, models.BalanceResponse{
		Points:         account.Points,
		TotalEarned:    account.TotalEarned,
		TotalWithdrawn: account.TotalWithdrawn,
	})
}

func (s *Server) handleCredit(c *gin.Context) {
	var req models.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	err := s.points.CreditForAdView(c.Request.Context(), currentUser(c).Id, req)
	s.metrics.credits.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}
	s.metrics.pointsCredited.Add(float64(req.Points))
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleAdViews(c *gin.Context) {
	c.JSON(http.StatusOK, s.points.GetAdViewCounts(c.Request.Context(), currentUser(c).Id))
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, "offset must be an integer")
		return
	}

	history := s.points.GetHistory(c.Request.Context(), currentUser(c).Id, limit, offset)
	c.JSON(http.StatusOK, toTransactionRecords(history))
}

func (s *Server) handleSubmitWithdrawal(c *gin.Context) {
	var req models.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	requestId, err := s.points.SubmitWithdrawal(c.Request.Context(), currentUser(c).Id, req)
	s.metrics.withdrawals.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SubmitWithdrawalResponse{Success: true, RequestId: requestId})
}

func (s *Server) handleListWithdrawals(c *gin.Context) {
	requests := s.points.ListWithdrawals(c.Request.Context(), currentUser(c).Id)
	c.JSON(http.StatusOK, toWithdrawalRecords(requests))
}

func (s *Server) handleListAds(c *gin.Context) {
	c.JSON(http.StatusOK, toAdRecords(s.points.ListAds(c.Request.Context())))
}

// ---------- admin ----------

func (s *Server) handleAdminUsers(c *gin.Context) {
	users, err := s.admin.ListUsers(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminUserRecords(users))
}

func (s *Server) handleAdminWithdrawals(c *gin.Context) {
	status := models.WithdrawalStatus(c.Query("status"))
	requests, err := s.admin.ListWithdrawals(c.Request.Context(), currentUser(c), status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReviewRecords(requests))
}

func (s *Server) handleReviewWithdrawal(c *gin.Context) {
	requestId, ok := pathId(c)
	if !ok {
		return
	}
	var req models.UpdateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	_, err := s.admin.UpdateWithdrawal(c.Request.Context(), currentUser(c), requestId, req.Status)
	s.metrics.reviews.WithLabelValues(string(req.Status), resultLabel(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleSetPoints(c *gin.Context) {
	userId, ok := pathId(c)
	if !ok {
		return
	}
	var req models.SetPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Points == nil {
		badRequest(c, "points is required")
		return
	}

	if err := s.admin.SetUserPoints(c.Request.Context(), currentUser(c), userId, *req.Points); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleSetBlocked(c *gin.Context) {
	userId, ok := pathId(c)
	if !ok {
		return
	}
	var req models.SetBlockedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.admin.SetUserBlocked(c.Request.Context(), currentUser(c), userId, req.Blocked, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleFraudSignal(c *gin.Context) {
	userId, ok := pathId(c)
	if !ok {
		return
	}
	var req models.FraudSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := s.admin.RecordFraudSignal(c.Request.Context(), currentUser(c), userId, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.admin.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleReconcile(c *gin.Context) {
	drift, err := s.admin.Reconcile(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDriftRecords(drift))
}

// pathId parses the :id segment, writing a 400 when it is not a positive integer
func pathId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
