package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const MMRTrackerName = "dotammr.v1.MMRTracker"

// MMRTrackerPath is the mount prefix of every procedure.
const MMRTrackerPath = "/" + MMRTrackerName + "/"

const (
	ListPlayersProcedure      = MMRTrackerPath + "ListPlayers"
	GetPlayerHistoryProcedure = MMRTrackerPath + "GetPlayerHistory"
	TrackPlayerProcedure      = MMRTrackerPath + "TrackPlayer"
	UntrackPlayerProcedure    = MMRTrackerPath + "UntrackPlayer"
	ReconstructProcedure      = MMRTrackerPath + "Reconstruct"
)

// NewHandler builds the HTTP handler serving every MMRTracker procedure and
// returns it with its mount path.
func NewHandler(s *TrackerServer, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec)}, opts...)

	listPlayers := connect.NewUnaryHandler(ListPlayersProcedure, s.ListPlayers, opts...)
	getPlayerHistory := connect.NewUnaryHandler(GetPlayerHistoryProcedure, s.GetPlayerHistory, opts...)
	trackPlayer := connect.NewUnaryHandler(TrackPlayerProcedure, s.TrackPlayer, opts...)
	untrackPlayer := connect.NewUnaryHandler(UntrackPlayerProcedure, s.UntrackPlayer, opts...)
	reconstruct := connect.NewUnaryHandler(ReconstructProcedure, s.Reconstruct, opts...)

	return MMRTrackerPath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ListPlayersProcedure:
			listPlayers.ServeHTTP(w, r)
		case GetPlayerHistoryProcedure:
			getPlayerHistory.ServeHTTP(w, r)
		case TrackPlayerProcedure:
			trackPlayer.ServeHTTP(w, r)
		case UntrackPlayerProcedure:
			untrackPlayer.ServeHTTP(w, r)
		case ReconstructProcedure:
			reconstruct.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
