package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/msmirnov/school-library/internal/errs"
	"github.com/msmirnov/school-library/internal/model"
	"github.com/msmirnov/school-library/pkg/auth"
	md "github.com/msmirnov/school-library/pkg/middleware"
	"github.com/msmirnov/school-library/pkg/validate"
)

type Handler struct {
	orderSvc OrderService
	authSvc  AuthService
	log      *zap.Logger
}

func New(orderSvc OrderService, authSvc AuthService, log *zap.Logger) *Handler {
	h := &Handler{
		orderSvc: orderSvc,
		authSvc:  authSvc,
		log:      log,
	}
	return h
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)

	api.POST("/register", h.Register)
	api.POST("/authorize", h.Authorize)

	authed := api.Group("", md.JwtAuthentication)
	authed.GET("/books", h.GetBooks)
	authed.GET("/books/:bookUid", h.GetBook)

	authed.POST("/orders", h.CreateOrder)
	authed.GET("/orders", h.GetOrders)
	authed.GET("/orders/:orderUid", h.GetOrder)
	authed.POST("/orders/:orderUid/status", h.UpdateOrderStatus)
	authed.DELETE("/orders/:orderUid", h.DeleteOrder)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func actor(c echo.Context) model.Actor {
	username, role := auth.GetAuthContext(c.Request().Context())
	return model.Actor{Username: username, Role: role}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrInvalidDate):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrNoAvailableCopies),
		errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) CreateOrder(c echo.Context) error {
	var req model.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Username = actor(c).Username

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.orderSvc.CreateOrder(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusCreated, order)
}

func (h *Handler) GetOrder(c echo.Context) error {
	orderUid := c.Param("orderUid")
	if orderUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orderUid is empty")
	}
	order, err := h.orderSvc.GetOrder(c.Request().Context(), actor(c), orderUid)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) GetOrders(c echo.Context) error {
	filter := model.OrdersFilter{
		Username: c.QueryParam("username"),
		BookUid:  c.QueryParam("bookUid"),
	}
	if raw := c.QueryParam("status"); raw != "" {
		status, ok := model.ParseOrderStatus(raw)
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown status "+raw)
		}
		filter.Status = status
	}
	orders, err := h.orderSvc.ListOrders(c.Request().Context(), actor(c), filter)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	orderUid := c.Param("orderUid")
	if orderUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orderUid is empty")
	}
	var req model.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	next, _ := model.ParseOrderStatus(req.Status)

	order, err := h.orderSvc.UpdateOrderStatus(c.Request().Context(), actor(c), orderUid, next)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, order)
}

func (h *Handler) DeleteOrder(c echo.Context) error {
	orderUid := c.Param("orderUid")
	if orderUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "orderUid is empty")
	}
	if err := h.orderSvc.DeleteOrder(c.Request().Context(), actor(c), orderUid); err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetBook(c echo.Context) error {
	bookUid := c.Param("bookUid")
	book, err := h.orderSvc.GetBook(c.Request().Context(), bookUid)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetBooks(c echo.Context) error {
	var (
		err     error
		page    int
		size    int
		showAll bool
	)
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if sizeParam := c.QueryParam("size"); sizeParam != "" {
		if size, err = strconv.Atoi(sizeParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if showAllParam := c.QueryParam("showAll"); showAllParam != "" {
		if showAll, err = strconv.ParseBool(showAllParam); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	books, err := h.orderSvc.ListBooks(c.Request().Context(), showAll, page, size)
	if err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) Register(c echo.Context) error {
	var userReq model.UserCreateRequest
	if err := c.Bind(&userReq); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&userReq); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authSvc.RegisterUser(c.Request().Context(), userReq); err != nil {
		return echo.NewHTTPError(httpStatus(err), err.Error())
	}
	return c.String(http.StatusCreated, "ok")
}

func (h *Handler) Authorize(c echo.Context) error {
	var credentials model.AuthRequest
	if err := c.Bind(&credentials); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&credentials); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.authSvc.VerifyUser(c.Request().Context(), credentials.Username, credentials.Password)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrForbidden) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	expirationTime := time.Now().Add(24 * time.Hour)
	token, err := newToken(user, expirationTime)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	response := &model.AuthResponse{
		ExpiresIn:   int(expirationTime.Unix()),
		AccessToken: token,
	}
	return c.JSON(http.StatusOK, response)
}
