package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/adapter/handler"
)

var (
	httpURL     = flag.String("http", "http://localhost:3001", "storefront HTTP base URL, used to seed the catalog")
	grpcAddr    = flag.String("grpc", "localhost:50051", "storefront gRPC address")
	userID      = flag.String("user", "5fc8e826-8642-4384-b75e-c2db246ba58c", "user whose cart is hammered")
	productName = flag.String("product", "Camiseta Básica", "catalog product added by every request")
	requests    = flag.Int("n", 50, "number of add-item requests")
	concurrency = flag.Int("c", 50, "concurrent requests in flight")
	duplicate   = flag.Bool("dup", false, "send every request twice with the same idempotency key (needs redis)")
)

func main() {
	flag.Parse()
	ctx := context.Background()

	product, err := seed(ctx)
	if err != nil {
		log.Fatalf("seed catalog: %v", err)
	}

	conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("dial grpc: %v", err)
	}
	defer conn.Close()
	client := handler.NewCartServiceClient(conn)

	// ClearCart needs an active cart, so make sure one exists first.
	if _, err := client.AddItem(ctx, &handler.AddItemMessage{UserID: *userID, ProductID: product.ID, Quantity: 1}); err != nil {
		log.Fatalf("prepare cart: %v", err)
	}
	if _, err := client.ClearCart(ctx, &handler.CartRequest{UserID: *userID}); err != nil {
		log.Fatalf("clear cart: %v", err)
	}

	var successCount, duplicateCount, failCount atomic.Int32
	runID := uuid.NewString()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(*concurrency)
	start := time.Now()

	for i := 0; i < *requests; i++ {
		attempts := 1
		if *duplicate {
			attempts = 2
		}
		for a := 0; a < attempts; a++ {
			msg := &handler.AddItemMessage{
				UserID:         *userID,
				ProductID:      product.ID,
				Quantity:       1,
				IdempotencyKey: fmt.Sprintf("%s-%d", runID, i),
			}
			g.Go(func() error {
				_, err := client.AddItem(gctx, msg)
				switch {
				case err == nil:
					successCount.Add(1)
				case isAlreadyExists(err):
					duplicateCount.Add(1)
				default:
					failCount.Add(1)
					log.Printf("add item: %v", err)
				}
				return nil
			})
		}
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	cart, err := client.GetCart(ctx, &handler.CartRequest{UserID: *userID})
	if err != nil {
		log.Fatalf("get cart: %v", err)
	}

	quantity := 0
	for _, item := range cart.Items {
		if item.ProductID == product.ID {
			quantity = item.Quantity
		}
	}
	expectedTotal := decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(int64(*requests)))

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Product:          %s (%.2f)\n", product.Name, product.Price)
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Duplicates:       %d\n", duplicateCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if quantity == *requests && len(cart.Items) == 1 {
		fmt.Printf("PASS: one line with quantity %d\n", quantity)
	} else {
		fmt.Printf("FAIL: expected one line with quantity %d, got %d lines, quantity %d\n",
			*requests, len(cart.Items), quantity)
	}

	if decimal.NewFromFloat(cart.Total).Equal(expectedTotal) {
		fmt.Printf("PASS: cart total %.2f\n", cart.Total)
	} else {
		fmt.Printf("FAIL: expected total %s, got %.2f\n", expectedTotal.StringFixed(2), cart.Total)
	}
}

// seed creates the demo catalog and user over HTTP and returns the product under test.
func seed(ctx context.Context) (*handler.ProductResponse, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	for _, path := range []string{"/productos/seed", "/usuarios/seed"} {
		if err := call(ctx, client, http.MethodPost, path, nil); err != nil {
			return nil, err
		}
	}

	var products []handler.ProductResponse
	if err := call(ctx, client, http.MethodGet, "/productos", &products); err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Name == *productName {
			return &products[i], nil
		}
	}
	return nil, errors.Errorf("product %q not in catalog", *productName)
}

func call(ctx context.Context, client *http.Client, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, *httpURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}
