package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"staymap/internal/domain"
)

func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertHotel(ctx context.Context, h domain.Hotel) error {
	amen, err := json.Marshal(nonNil(h.Amenities))
	if err != nil {
		return err
	}
	imgs, err := json.Marshal(nonNil(h.Images))
	if err != nil {
		return err
	}
	var lat, lng *float64
	if h.Coordinates != nil {
		lat, lng = &h.Coordinates.Lat, &h.Coordinates.Lng
	}
	_, err = r.db.ExecContext(ctx, upsertHotelSQL,
		h.ID, h.Name, h.Location, h.City, h.Country, h.Type,
		h.Price, h.Rating,
		string(amen), string(imgs), h.Description,
		valF64(lat), valF64(lng),
		valJSON(h.RawJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert hotel %s: %w", h.ID, err)
	}
	return nil
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	query, args, err := sq.Select(hotelColumns...).From("hotels").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.Hotel{}, err
	}
	h, err := scanHotel(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

// ListHotels returns the candidate collection in insertion order.
func (r *Repo) ListHotels(ctx context.Context, q domain.HotelsQuery) ([]domain.Hotel, error) {
	b := sq.Select(hotelColumns...).From("hotels").OrderBy("created_at", "id")
	if q.Country != nil {
		b = b.Where(sq.Eq{"country": *q.Country})
	}
	if q.City != nil {
		b = b.Where(sq.Eq{"city": *q.City})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list hotels: %w", err)
	}
	defer rows.Close()

	out := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	var amenitiesJSON, imagesJSON []byte
	var desc sql.NullString
	var lat, lng sql.NullFloat64
	if err := s.Scan(
		&h.ID, &h.Name, &h.Location, &h.City, &h.Country, &h.Type,
		&h.Price, &h.Rating,
		&amenitiesJSON, &imagesJSON, &desc,
		&lat, &lng,
	); err != nil {
		return domain.Hotel{}, err
	}
	if len(amenitiesJSON) > 0 {
		_ = json.Unmarshal(amenitiesJSON, &h.Amenities)
	}
	if len(imagesJSON) > 0 {
		_ = json.Unmarshal(imagesJSON, &h.Images)
	}
	if h.Amenities == nil {
		h.Amenities = []string{}
	}
	h.Description = desc.String
	if lat.Valid && lng.Valid {
		h.Coordinates = &domain.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return h, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
