package server

import (
	"net/http"

	"connectrpc.com/connect"
)

const (
	// WordlistServiceName is the fully-qualified name of the service.
	WordlistServiceName = "elicitor.v1.WordlistService"

	ListEntriesProcedure       = "/elicitor.v1.WordlistService/ListEntries"
	JumpToEntryProcedure       = "/elicitor.v1.WordlistService/JumpToEntry"
	SaveTranscriptionProcedure = "/elicitor.v1.WordlistService/SaveTranscription"
	AttachAudioProcedure       = "/elicitor.v1.WordlistService/AttachAudio"
	RecordConsentProcedure     = "/elicitor.v1.WordlistService/RecordConsent"
	GetProgressProcedure       = "/elicitor.v1.WordlistService/GetProgress"
	ImportWordlistProcedure    = "/elicitor.v1.WordlistService/ImportWordlist"
	ExportWordlistProcedure    = "/elicitor.v1.WordlistService/ExportWordlist"
	ExportArchiveProcedure     = "/elicitor.v1.WordlistService/ExportArchive"
)

// Codec returns the codec clients must use to talk to the service.
func Codec() connect.Codec {
	return jsonCodec{}
}

// NewWordlistServiceHandler builds an HTTP handler serving every procedure
// and returns the path to mount it on.
func NewWordlistServiceHandler(h *WordlistHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(ListEntriesProcedure, connect.NewUnaryHandler(ListEntriesProcedure, h.ListEntries, opts...))
	mux.Handle(JumpToEntryProcedure, connect.NewUnaryHandler(JumpToEntryProcedure, h.JumpToEntry, opts...))
	mux.Handle(SaveTranscriptionProcedure, connect.NewUnaryHandler(SaveTranscriptionProcedure, h.SaveTranscription, opts...))
	mux.Handle(AttachAudioProcedure, connect.NewUnaryHandler(AttachAudioProcedure, h.AttachAudio, opts...))
	mux.Handle(RecordConsentProcedure, connect.NewUnaryHandler(RecordConsentProcedure, h.RecordConsent, opts...))
	mux.Handle(GetProgressProcedure, connect.NewUnaryHandler(GetProgressProcedure, h.GetProgress, opts...))
	mux.Handle(ImportWordlistProcedure, connect.NewUnaryHandler(ImportWordlistProcedure, h.ImportWordlist, opts...))
	mux.Handle(ExportWordlistProcedure, connect.NewUnaryHandler(ExportWordlistProcedure, h.ExportWordlist, opts...))
	mux.Handle(ExportArchiveProcedure, connect.NewUnaryHandler(ExportArchiveProcedure, h.ExportArchive, opts...))
	return "/" + WordlistServiceName + "/", mux
}
