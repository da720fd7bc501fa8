package handlers

import (
	"errors"

	"productos/internal/models"
	"productos/internal/repositories"
	"productos/internal/services"
	"productos/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	msgProductNotFound = "Producto no encontrado"
	msgProductDeleted  = "Producto eliminado"
)

var (
	idRule = validation.Param("id").IsPositiveInt("El id no es válido")

	productBodyRules = []validation.Rule{
		validation.Body("name").NotEmpty("El nombre del producto no puede ir vacío"),
		validation.Body("price").IsNumeric("El valor no es válido"),
		validation.Body("price").NotEmpty("El precio del producto no puede ir vacío"),
		validation.Body("price").GreaterThan(0, "El precio no es válido"),
	}

	availableRule = validation.Body("available").IsBoolean("El valor para la disponibilidad no es válido")
)

func createRules() []validation.Rule {
	return append([]validation.Rule{}, productBodyRules...)
}

func updateRules() []validation.Rule {
	rules := []validation.Rule{idRule}
	rules = append(rules, productBodyRules...)
	return append(rules, availableRule)
}

// ProductResponse is the JSON shape of a product.
type ProductResponse struct {
	ID        uint    `json:"id" example:"1"`
	Name      string  `json:"name" example:"Monitor Curvo de 49 Pulgadas"`
	Price     float64 `json:"price" example:"300"`
	Available bool    `json:"available" example:"true"`
}

func newProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Available: p.Available,
	}
}

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes. Every route runs its
// validation pipeline before the handler.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/productos")
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Get("/:id", validation.Pipeline(idRule), h.HandleGetProductByID)
	productRoutes.Post("/", validation.Pipeline(createRules()...), h.HandleCreateProduct)
	productRoutes.Put("/:id", validation.Pipeline(updateRules()...), h.HandleUpdateProduct)
	productRoutes.Patch("/:id", validation.Pipeline(idRule), h.HandleToggleAvailability)
	productRoutes.Delete("/:id", validation.Pipeline(idRule), h.HandleDeleteProduct)
}

// HandleGetProducts godoc
// @Summary      Get a list of products
// @Tags         Products
// @Produce      json
// @Success      200  {array}  ProductResponse
// @Router       /api/productos [get]
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return err
	}

	data := make([]ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, newProductResponse(&products[i]))
	}
	return c.JSON(fiber.Map{"data": data})
}

// HandleGetProductByID godoc
// @Summary      Get a product by ID
// @Tags         Products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  ProductResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/productos/{id} [get]
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := validation.InputFrom(c).ID("id")
	if err != nil {
		return err
	}

	product, err := h.service.GetProduct(c.UserContext(), id)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{"data": newProductResponse(product)})
}

// HandleCreateProduct godoc
// @Summary      Create a new product
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        product  body      ProductRequest  true  "Product data"
// @Success      201      {object}  ProductResponse
// @Failure      400      {object}  ValidationErrorResponse
// @Router       /api/productos [post]
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	in := validation.InputFrom(c)
	price, err := in.Float("price")
	if err != nil {
		return err
	}

	product, err := h.service.CreateProduct(c.UserContext(), services.CreateProductInput{
		Name:  in.String("name"),
		Price: price,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": newProductResponse(product)})
}

// HandleUpdateProduct godoc
// @Summary      Update a product with user input
// @Tags         Products
// @Accept       json
// @Produce      json
// @Param        id       path      int                   true  "Product ID"
// @Param        product  body      ProductUpdateRequest  true  "Product data"
// @Success      200      {object}  ProductResponse
// @Failure      400      {object}  ValidationErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/productos/{id} [put]
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	in := validation.InputFrom(c)
	id, err := in.ID("id")
	if err != nil {
		return err
	}
	price, err := in.Float("price")
	if err != nil {
		return err
	}
	available, err := in.Bool("available")
	if err != nil {
		return err
	}

	product, err := h.service.UpdateProduct(c.UserContext(), id, services.UpdateProductInput{
		Name:      in.String("name"),
		Price:     price,
		Available: available,
	})
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{"data": newProductResponse(product)})
}

// HandleToggleAvailability godoc
// @Summary      Toggle the availability of a product
// @Tags         Products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  ProductResponse
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/productos/{id} [patch]
func (h *ProductHandler) HandleToggleAvailability(c *fiber.Ctx) error {
	id, err := validation.InputFrom(c).ID("id")
	if err != nil {
		return err
	}

	product, err := h.service.ToggleAvailability(c.UserContext(), id)
	if err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{"data": newProductResponse(product)})
}

// HandleDeleteProduct godoc
// @Summary      Delete a product by ID
// @Tags         Products
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {string}  string  "Producto eliminado"
// @Failure      400  {object}  ValidationErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/productos/{id} [delete]
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := validation.InputFrom(c).ID("id")
	if err != nil {
		return err
	}

	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		return productError(c, err)
	}
	return c.JSON(fiber.Map{"data": msgProductDeleted})
}

// productError answers 404 for a missing product and hands anything else to
// the app error handler.
func productError(c *fiber.Ctx, err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msgProductNotFound})
	}
	return err
}

// ProductRequest documents the body of a create request.
type ProductRequest struct {
	Name  string  `json:"name" example:"Monitor Curvo de 49 Pulgadas"`
	Price float64 `json:"price" example:"300"`
}

// ProductUpdateRequest documents the body of a full update.
type ProductUpdateRequest struct {
	Name      string  `json:"name" example:"Monitor Curvo de 49 Pulgadas"`
	Price     float64 `json:"price" example:"300"`
	Available bool    `json:"available" example:"true"`
}

// ErrorResponse documents a 404 or 500 body.
type ErrorResponse struct {
	Error string `json:"error" example:"Producto no encontrado"`
}

// ValidationErrorResponse documents a 400 body.
type ValidationErrorResponse struct {
	Errors []validation.FieldError `json:"errors"`
}
