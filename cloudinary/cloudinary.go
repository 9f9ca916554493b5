package cloudinary

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const uploadFolder = "ranger_reports"

// Image is the durable result of a relayed upload. PublicID is what a later
// Destroy needs.
type Image struct {
	URL      string
	PublicID string
}

// Relay stores report photos in external object storage
type Relay interface {
	Upload(ctx context.Context, content io.Reader) (*Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// Client implements Relay on top of the Cloudinary SDK
type Client struct {
	cld *cloudinary.Cloudinary
}

// New builds a Cloudinary client from the CLOUDINARY_* environment variables
func New() (*Client, error) {
	cloudName := os.Getenv("CLOUDINARY_CLOUD_NAME")
	apiKey := os.Getenv("CLOUDINARY_API_KEY")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary environment variables are not set")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := cld.Admin.Ping(ctx); err != nil {
		return nil, fmt.Errorf("cloudinary ping failed: %w", err)
	}

	return &Client{cld: cld}, nil
}

func boolPointer(b bool) *bool {
	return &b
}

// Upload relays a report photo and returns its durable URL and public id
func (c *Client) Upload(ctx context.Context, content io.Reader) (*Image, error) {
	publicID := fmt.Sprintf("report_%s", uuid.New().String())

	res, err := c.cld.Upload.Upload(ctx, content, uploader.UploadParams{
		Folder:       uploadFolder,
		PublicID:     publicID,
		Overwrite:    boolPointer(false),
		ResourceType: "image",
	})
	if err != nil {
		return nil, err
	}
	if res.SecureURL == "" {
		return nil, fmt.Errorf("cloudinary returned an empty secure URL for %s", res.PublicID)
	}

	zap.S().Debugw("uploaded report photo", "publicId", res.PublicID)
	return &Image{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Destroy removes a previously relayed photo by public id
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return err
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("cloudinary destroy returned %q for %s", res.Result, publicID)
	}
	return nil
}
