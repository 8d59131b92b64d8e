package intake

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"golang.org/x/sync/errgroup"
)

// ReadMultipart reads the uploaded parts concurrently and returns them in input order.
// Every read finishes before the batch is handed on for normalization.
func ReadMultipart(ctx context.Context, headers []*multipart.FileHeader) ([]File, error) {
	if len(headers) > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrBatchTooLarge, len(headers))
	}

	files := make([]File, len(headers))
	g, ctx := errgroup.WithContext(ctx)
	for i, header := range headers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			data, err := readPart(header)
			if err != nil {
				return fmt.Errorf("reading %s: %w", header.Filename, err)
			}

			files[i] = File{
				Name:      header.Filename,
				MediaType: header.Header.Get("Content-Type"),
				Data:      data,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
