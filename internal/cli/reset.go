package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"crudload/internal/client"
	"crudload/internal/maintenance"
)

// ResetSequence restarts the users id sequence and tells the operator how.
func ResetSequence(ctx context.Context, out io.Writer, baseURL, dsn string, log logrus.FieldLogger) error {
	fmt.Fprintln(out, "🔄 Resetting the users id sequence")

	res, err := maintenance.Reset(ctx, client.New(baseURL, 0), dsn, log)
	switch {
	case err == nil && res.ViaAPI:
		fmt.Fprintln(out, "✅ Sequence reset through the API")
	case err == nil && res.ViaDatabase:
		fmt.Fprintln(out, "✅ API call failed, sequence reset directly in PostgreSQL")
	}
	if err != nil {
		fmt.Fprintf(out, "❌ %v\n", err)
		fmt.Fprintln(out, "💡 Reset it manually in PostgreSQL:")
		fmt.Fprintf(out, "   %s;\n", maintenance.ResetStatement)
		return reportedError{err}
	}
	fmt.Fprintln(out, "💡 The next users will get ids 1, 2, 3...")
	return nil
}
