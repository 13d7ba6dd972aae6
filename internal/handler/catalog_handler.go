package handler

import (
	"net/http"

	"coinmeet/internal/middleware"
	"coinmeet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog *service.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, log: log}
}

// CreateGift handles POST /admin/gifts.
func (h *CatalogHandler) CreateGift(c *gin.Context) {
	var req struct {
		Title     string `json:"title" binding:"required"`
		Coin      int64  `json:"coin" binding:"required,min=1"`
		ImageURL  string `json:"image_url"`
		Published *bool  `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	g, err := h.catalog.CreateGift(service.CreateGiftInput{
		Title:     req.Title,
		Coin:      req.Coin,
		ImageURL:  req.ImageURL,
		Published: req.Published,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "gift created", g)
}

// AdminGifts handles GET /admin/gifts, drafts included.
func (h *CatalogHandler) AdminGifts(c *gin.Context) {
	h.gifts(c, false)
}

// Gifts handles GET /male-user/gifts.
func (h *CatalogHandler) Gifts(c *gin.Context) {
	h.gifts(c, true)
}

func (h *CatalogHandler) gifts(c *gin.Context, publishedOnly bool) {
	list, err := h.catalog.Gifts(publishedOnly)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "gifts", list)
}

// SendGift handles POST /male-user/gifts/send.
func (h *CatalogHandler) SendGift(c *gin.Context) {
	var req struct {
		FemaleUserID uint `json:"female_user_id" binding:"required"`
		GiftID       uint `json:"gift_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.catalog.SendGift(c.Request.Context(), middleware.GetUserID(c), req.FemaleUserID, req.GiftID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "gift sent", res)
}

// CreatePackage handles POST /admin/coin-packages.
func (h *CatalogHandler) CreatePackage(c *gin.Context) {
	var req struct {
		Title       string          `json:"title" binding:"required"`
		Coins       int64           `json:"coins" binding:"required,min=1"`
		PriceRupees decimal.Decimal `json:"price_rupees"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	p, err := h.catalog.CreatePackage(service.CreatePackageInput{
		Title:       req.Title,
		Coins:       req.Coins,
		PriceRupees: req.PriceRupees,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "coin package created", p)
}

// Packages handles GET /male-user/coin-packages.
func (h *CatalogHandler) Packages(c *gin.Context) {
	list, err := h.catalog.Packages()
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "coin packages", list)
}

// BuyCoins handles POST /male-user/buy-coins.
func (h *CatalogHandler) BuyCoins(c *gin.Context) {
	var req struct {
		PackageID uint `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	t, err := h.catalog.BuyCoins(c.Request.Context(), middleware.GetUserID(c), req.PackageID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "coins credited", t)
}
