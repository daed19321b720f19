// Package meshchat implements the networking core of a peer-to-peer chat
// and voice system.
//
// The core turns framed bytes received by a host transport into typed
// packages and runs the command registered for each package id. It is built
// from small packages that can be used on their own:
//
//   - pool: a bounded, size-sorted pool of reusable byte buffers
//   - packer: the package envelope, registration and pooled decode units
//   - command: id-keyed command dispatch for server and client handlers
//   - room: chat rooms and voice rooms with their full-mesh connection map
//   - server: the connection registry and the built-in ping and unregister commands
//   - factory, real, testing: outbound package delivery over a host transport
//     or an in-memory simulation
//
// # Getting Started
//
// Create an engine, register your own packages and commands, then start it:
//
//	opts := meshchat.OptionsFromEnv()
//	opts.Transport = myTransport
//
//	engine, err := meshchat.New(opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine.RegisterPackage(chatID, func() packer.Package { return &Chat{} })
//	engine.RegisterCommand(command.NewServerCommand(chatID, handleChat))
//	engine.Start()
//
// The transport reads each frame into a buffer from engine.Pool() and hands
// it over:
//
//	buf := engine.Pool().Get(frameLen)
//	buf.Write(frame)
//	if err := engine.HandleServerData(connID, buf); err != nil {
//	    log.Printf("frame from %s: %v", connID, err)
//	}
//
// The engine owns the buffer once HandleServerData is called and returns it
// to the pool whether or not the frame decodes.
//
// # Wire Format
//
// Every package travels as an 8-byte big-endian package id followed by the
// codec payload, JSON unless Options.Codec says otherwise. The package id is
// also the id of the command that handles it.
//
// # Configuration
//
// OptionsFromEnv reads MESHCHAT_POOL_MAX_SIZE, MESHCHAT_POOL_BUFFER_SIZE,
// MESHCHAT_RATE_LIMIT and MESHCHAT_RATE_BURST. The delivery factory reads
// MESHCHAT_USE_SIMULATION, MESHCHAT_RETRY_ATTEMPTS and
// MESHCHAT_RETRY_BACKOFF_MS.
//
// # Logging
//
// All packages log through logrus with a "function" field naming the
// operation. Configure the level and output with the logrus package-level
// functions.
package meshchat
