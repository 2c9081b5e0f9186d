// Annotato - Collaborative Project Annotation Backend
// Copyright 2026 Annotato Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/annotato/annotato

// Package websocket implements the live annotation channel.
//
// Three pieces cooperate per project:
//
//   - Registry tracks the set of connected viewer sessions per project.
//   - Hub owns the per-project snapshot cache. On every edit signal it
//     re-fetches the project's full annotation set from the durable store
//     and fans the result out to every registered session of that project.
//     A viewer joining a project with a cached snapshot receives it
//     immediately, so late joiners never wait for the next edit.
//   - Client bridges one gorilla/websocket connection: its read pump turns
//     inbound frames into edit signals, its write pump delivers snapshots.
//
// The hub always sends the full current set rather than deltas, trading
// bandwidth for self-healing against missed updates. A session whose
// outbound queue cannot accept a snapshot is deregistered; the remaining
// sessions of the fan-out are unaffected.
package websocket
