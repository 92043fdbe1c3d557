// Package morph is a real-time 3D vehicle for [Ebitengine] that morphs
// between a wheeled car, a flying craft and a walking robot.
//
// The vehicle is a fixed tree of twelve rigid parts under one group node.
// Every frame the [Integrator] advances the body (speed, heading, bank,
// altitude) and each [PartAnimator] eases its part toward the pose of the
// active [Mode], adding secondary motion such as spinning wheels, swinging
// doors and flapping wings. An [OrbitCamera] follows the body.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	cfg := morph.DefaultConfig()
//	session := morph.NewSession(cfg, morph.NewKeyboardSource(), nil)
//	morph.Run(session, morph.RunConfig{
//		Title: "morph", Width: 1280, Height: 720,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Session.Update] and [Session.Draw] directly.
//
// # Controls
//
// Arrow keys or WASD drive and steer. R toggles robot mode, F toggles
// flight and E or Space opens the door (car mode only). The HUD buttons
// issue the same commands. Drag to orbit, scroll to zoom, Home resets the
// zoom and P saves a screenshot.
//
// # Scripted runs
//
// A [Scenario] replays key presses, commands, expectations and screenshots
// from a YAML or JSON script through a [SyntheticSource]:
//
//	name: takeoff
//	steps:
//	  - {action: hold, key: w, frames: 60}
//	  - {action: command, command: toggle_flight}
//	  - {action: wait, frames: 90}
//	  - {action: expect_mode, mode: flight}
//	  - {action: screenshot, label: airborne}
//
// [Ebitengine]: https://ebitengine.org
package morph
