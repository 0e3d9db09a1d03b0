// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package consult provides the consultation form pane of the medconsult TUI.

The form collects name, age, gender, severity (a radio group with a
pre-selected default), symptoms, duration and a known disease, submits them
to /consult and renders the reply as result cards. When the backend produced
a report, a download action streams it to disk.

Keys: up/down move between fields, left/right change severity, enter
submits (or activates the focused button), ctrl+d downloads, esc cancels the
request in flight. A failed download raises a blocking alert; while it is
visible every key goes to the alert.
*/
package consult
