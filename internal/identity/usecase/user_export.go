package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/datasprint/internal/identity/entity"
	"github.com/shandysiswandi/datasprint/internal/pkg/goerror"
	"github.com/shandysiswandi/datasprint/internal/pkg/storage"
	"github.com/shandysiswandi/datasprint/internal/shared/constant"
)

const ExportFileName = "DATASPRINT_REGISTRATIONS.csv"

const exportContentType = "text/csv"

var exportHeader = []string{
	"ID", "TEAM_NAME", "LEAD_NAME", "LEAD_EMAIL", "LEAD_PHONE", "COLLEGE", "DEPT", "YEAR",
	"MEMBER_1", "MEMBER_2", "MEMBER_3", "REGISTERED_AT",
}

type UserExportOutput struct {
	FileName    string
	ContentType string
	Body        []byte
}

func (s *Usecase) UserExport(ctx context.Context) (*UserExportOutput, error) {
	ctx, span := s.startSpan(ctx, "UserExport")
	defer span.End()

	user, err := s.authenticatedAndAuthorized(ctx, constant.PermIdentityUsers, constant.PermActExport)
	if err != nil {
		return nil, err
	}

	users, err := s.repoDB.GetUsersForExport(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo export users", "error", err)
		return nil, goerror.NewServer(err)
	}

	body := encodeExportCSV(users)

	if s.cfg.GetBool("modules.identity.export_archive.enabled") {
		s.archiveExport(ctx, user.ID, body)
	}

	return &UserExportOutput{
		FileName:    ExportFileName,
		ContentType: exportContentType,
		Body:        body,
	}, nil
}

// archiveExport uploads a copy of the export in the background; the download
// never waits on it.
func (s *Usecase) archiveExport(ctx context.Context, byID int64, body []byte) {
	bucket := s.cfg.GetString("modules.identity.export_archive.bucket")
	key := s.cfg.GetString("modules.identity.export_archive.prefix") +
		"DATASPRINT_REGISTRATIONS_" + s.clock.Now().UTC().Format("20060102T150405Z") + ".csv"

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		info, err := s.repoStorage.PutObject(ctx, bucket, key, bytes.NewReader(body), storage.PutOptions{
			Size:        int64(len(body)),
			ContentType: exportContentType,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to archive export", "bucket", bucket, "key", key, "error", err)
			return err
		}

		slog.InfoContext(ctx, "export archived", "bucket", info.Bucket, "key", info.Key, "size", info.Size, "by", byID)
		return nil
	})
}

func encodeExportCSV(users []entity.User) []byte {
	var b bytes.Buffer
	b.WriteString(strings.Join(exportHeader, ","))

	for _, u := range users {
		members := [entity.MaxMembers]string{"---", "---", "---"}
		for i, m := range u.Members {
			if i >= entity.MaxMembers {
				break
			}
			if m.Name != "" {
				members[i] = m.Name
			}
		}

		b.WriteByte('\n')
		b.WriteString(strings.Join([]string{
			strconv.FormatInt(u.ID, 10),
			quoteCSV(u.TeamName),
			quoteCSV(u.Name),
			quoteCSV(u.Email),
			quoteCSV(u.Phone),
			quoteCSV(u.College),
			quoteCSV(u.Dept),
			quoteCSV(u.Year),
			quoteCSV(members[0]),
			quoteCSV(members[1]),
			quoteCSV(members[2]),
			u.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		}, ","))
	}

	return b.Bytes()
}

// quoteCSV always quotes, unlike encoding/csv which only quotes when needed.
func quoteCSV(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
