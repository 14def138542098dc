package merchantloc

import (
	"io"

	"github.com/google/uuid"

	"github.com/example/localmart/internal/discovery/domain"
)

// Server ingests merchant location streams into the store.
type Server struct {
	store *Store
}

// NewServer constructs a server.
func NewServer(store *Store) *Server {
	return &Server{store: store}
}

// StreamLocation consumes position updates until the client closes the
// stream. Updates with unparseable merchant ids are skipped.
func (s *Server) StreamLocation(stream Location_StreamLocationServer) error {
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&Ack{})
		}
		if err != nil {
			return err
		}
		merchantID, err := uuid.Parse(msg.MerchantId)
		if err != nil {
			continue
		}
		s.store.Update(stream.Context(), merchantID, domain.Coordinate{Lat: msg.Lat, Lng: msg.Lng})
	}
}
