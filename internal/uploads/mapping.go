package uploads

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/JaimeStill/reelsync/pkg/repository"
)

const linkColumns = "id, show_code, episode_number, remote_id, created_date, last_updated"

func scanUpload(s repository.Scanner) (Upload, error) {
	var (
		u       Upload
		props   []byte
		parsed  []byte
		lastUpd sql.NullTime
	)
	err := s.Scan(
		&u.ID,
		&u.Filename,
		&u.UploadDate,
		&props,
		&parsed,
		&u.Status,
		&u.StorageKey,
		&lastUpd,
		&u.Version,
	)
	if err != nil {
		return u, err
	}

	if err := json.Unmarshal(props, &u.FileProperties); err != nil {
		return u, fmt.Errorf("decode file_properties: %w", err)
	}
	if err := json.Unmarshal(parsed, &u.ParsedData); err != nil {
		return u, fmt.Errorf("decode parsed_data: %w", err)
	}
	if lastUpd.Valid {
		u.LastUpdated = &lastUpd.Time
	}
	return u, nil
}

func scanSummary(s repository.Scanner) (Summary, error) {
	var (
		sum     Summary
		lastUpd sql.NullTime
	)
	err := s.Scan(
		&sum.ID,
		&sum.Filename,
		&sum.UploadDate,
		&sum.Status,
		&sum.Packages,
		&sum.Titles,
		&sum.Episodes,
		&sum.Links,
		&lastUpd,
	)
	if lastUpd.Valid {
		sum.LastUpdated = &lastUpd.Time
	}
	return sum, err
}

func scanLink(s repository.Scanner) (CollectionLink, error) {
	var (
		l       CollectionLink
		lastUpd sql.NullTime
	)
	err := s.Scan(
		&l.ID,
		&l.ShowCode,
		&l.EpisodeNumber,
		&l.RemoteID,
		&l.CreatedDate,
		&lastUpd,
	)
	if lastUpd.Valid {
		l.LastUpdated = &lastUpd.Time
	}
	return l, err
}

func scanTitle(s repository.Scanner) (TitleRow, error) {
	var t TitleRow
	err := s.Scan(&t.TiCode, &t.SeriesTitle)
	return t, err
}

func scanPackage(s repository.Scanner) (PackageRow, error) {
	var p PackageRow
	err := s.Scan(&p.TiCode, &p.BrandTiCode, &p.DisplayName, &p.Phase)
	return p, err
}
