package handlers

import (
	"pronat/internal/repositories"
	"pronat/internal/services/auth"
	"pronat/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	authService  auth.Service
	transactions repositories.TransactionRepository
}

func NewUserHandler(authService auth.Service, transactions repositories.TransactionRepository) *UserHandler {
	return &UserHandler{
		authService:  authService,
		transactions: transactions,
	}
}

// Me returns the current account including its credit balance.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), utils.UserID(c))
	if err != nil {
		return err
	}
	return utils.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var input struct {
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.authService.CompleteProfile(c.UserContext(), utils.UserID(c), input.FullName, input.Phone)
	if err != nil {
		return err
	}
	return utils.Success(c, user)
}

// Transactions lists the caller's ledger, newest first.
func (h *UserHandler) Transactions(c *fiber.Ctx) error {
	p := utils.GetPagination(c)
	txs, total, err := h.transactions.ListByUser(c.UserContext(), utils.UserID(c), p.Offset, p.Limit)
	if err != nil {
		return err
	}
	return utils.Success(c, utils.NewPaginatedResponse(txs, total, p))
}
