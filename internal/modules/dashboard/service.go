package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zubacrafts/storefront/internal/modules/catalog"
	"github.com/zubacrafts/storefront/internal/modules/identity"
	"github.com/zubacrafts/storefront/internal/modules/order"
)

// ErrPermissionDenied guards the whole dashboard.
var ErrPermissionDenied = errors.New("dashboard: permission denied")

// TopProductLimit caps the best-sellers list.
const TopProductLimit = 5

// OrderSource, ProductSource, and UserSource are the dashboard's read views
// over the other modules. Satisfied by the respective repositories.
type OrderSource interface {
	ListOrders(ctx context.Context) ([]*order.Order, error)
}

type ProductSource interface {
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
}

type UserSource interface {
	ListUsers(ctx context.Context) ([]*identity.User, error)
}

// Stats is the admin dashboard snapshot. Revenue counts delivered and
// shipped orders only.
type Stats struct {
	Users          int            `json:"users"`
	Products       int            `json:"products"`
	Orders         int            `json:"orders"`
	Revenue        float64        `json:"revenue"`
	OrdersByStatus map[string]int `json:"ordersByStatus"`
	TopProducts    []ProductSales `json:"topProducts"`
}

// ProductSales is units sold for one product across all orders.
type ProductSales struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Service aggregates store data for the admin dashboard.
type Service interface {
	// Stats computes the snapshot. Admin only.
	Stats(ctx context.Context, actor identity.Actor) (*Stats, error)

	// ExportCSV renders the snapshot as CSV: a header row then
	// comma-joined value rows, double-quoting only fields that contain
	// commas. Admin only.
	ExportCSV(ctx context.Context, actor identity.Actor) (string, error)
}

type service struct {
	orders   OrderSource
	products ProductSource
	users    UserSource
}

// NewService creates a new dashboard service.
func NewService(orders OrderSource, products ProductSource, users UserSource) Service {
	return &service{orders: orders, products: products, users: users}
}

func (s *service) Stats(ctx context.Context, actor identity.Actor) (*Stats, error) {
	if !actor.Admin {
		return nil, ErrPermissionDenied
	}
	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	stats := &Stats{
		Users:          len(users),
		Products:       len(products),
		Orders:         len(orders),
		OrdersByStatus: map[string]int{},
	}
	sold := map[string]*ProductSales{}
	for _, o := range orders {
		stats.OrdersByStatus[string(o.Status)]++
		if o.Status == order.StatusDelivered || o.Status == order.StatusShipped {
			stats.Revenue += o.Total
		}
		for _, item := range o.Items {
			ps, ok := sold[item.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: item.ProductID, Name: item.Name}
				sold[item.ProductID] = ps
			}
			ps.Quantity += item.Quantity
		}
	}
	stats.Revenue = round2(stats.Revenue)

	ranked := make([]ProductSales, 0, len(sold))
	for _, ps := range sold {
		ranked = append(ranked, *ps)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Quantity != ranked[j].Quantity {
			return ranked[i].Quantity > ranked[j].Quantity
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > TopProductLimit {
		ranked = ranked[:TopProductLimit]
	}
	stats.TopProducts = ranked
	return stats, nil
}

// statusOrder fixes the row order of the by-status section so exports are
// stable across runs.
var statusOrder = []order.Status{
	order.StatusPending, order.StatusProcessing, order.StatusShipped,
	order.StatusDelivered, order.StatusCancelled, order.StatusRefunded,
}

func (s *service) ExportCSV(ctx context.Context, actor identity.Actor) (string, error) {
	stats, err := s.Stats(ctx, actor)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	writeRow(&b, "Metric", "Value")
	writeRow(&b, "Total Users", strconv.Itoa(stats.Users))
	writeRow(&b, "Total Products", strconv.Itoa(stats.Products))
	writeRow(&b, "Total Orders", strconv.Itoa(stats.Orders))
	writeRow(&b, "Total Revenue", formatAmount(stats.Revenue))
	for _, st := range statusOrder {
		writeRow(&b, "Orders "+string(st), strconv.Itoa(stats.OrdersByStatus[string(st)]))
	}
	for _, ps := range stats.TopProducts {
		writeRow(&b, "Top Product "+ps.Name, strconv.Itoa(ps.Quantity))
	}
	return b.String(), nil
}

// writeRow joins fields with commas, double-quoting any field that itself
// contains a comma.
func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		if strings.Contains(f, ",") {
			b.WriteByte('"')
			b.WriteString(f)
			b.WriteByte('"')
		} else {
			b.WriteString(f)
		}
	}
	b.WriteByte('\n')
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
