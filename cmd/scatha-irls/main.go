// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"scatha/internal/irls"
)

const lsName = "scatha-irls"

var (
	version = "0.0.1"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	h := irls.NewHandler()

	handler = protocol.Handler{
		Initialize:             h.Initialize,
		Initialized:            h.Initialized,
		Shutdown:               h.Shutdown,
		TextDocumentDidOpen:    h.TextDocumentDidOpen,
		TextDocumentDidClose:   h.TextDocumentDidClose,
		TextDocumentDidChange:  h.TextDocumentDidChange,
		WorkspaceExecuteCommand: h.ExecuteCommand,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting scatha-irls...")

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting scatha-irls:", err)
		os.Exit(1)
	}
}
