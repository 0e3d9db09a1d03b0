// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/jeranaias/medconsult-tui/internal/consult"
)

// handleAnswer handles POST /get_answer. The question may arrive as JSON or
// as a form field.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	question := r.PostFormValue("question")
	if question == "" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"answer": "Error: invalid request body"})
			return
		}
		question = body.Question
	}

	sid, _ := s.sessionFor(w, r)
	key := normalizeQuestion(question)

	// An aborted request must not drop the connection that holds an
	// in-memory database
	ctx := context.WithoutCancel(r.Context())

	st, err := s.storage()
	if err != nil {
		s.answerError(w, err)
		return
	}

	cached, ok, err := st.CachedAnswer(ctx, key)
	if err != nil {
		s.answerError(w, err)
		return
	}
	if ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"answer": cached, "cached": true})
		return
	}

	s.mu.Lock()
	answer, ok := s.answers[key]
	s.mu.Unlock()
	if !ok {
		answer = fmt.Sprintf("I could not find %q in the indexed documents.", strings.TrimSpace(question))
	}

	if err := st.SaveExchange(ctx, sid, strings.TrimSpace(question), answer); err != nil {
		s.answerError(w, err)
		return
	}
	if err := st.SaveAnswer(ctx, key, answer); err != nil {
		s.answerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"answer": answer, "cached": false})
}

// answerError reports a failure the way the reference backend does: a 500
// whose body still carries an "answer".
func (s *Server) answerError(w http.ResponseWriter, err error) {
	s.logf("STORE_ERROR | path=/get_answer error=%v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"answer": "Error: " + err.Error()})
}

// handleIngest handles POST /ingest. A rebuilt index invalidates cached
// answers.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	st, err := s.storage()
	if err == nil {
		_, err = st.BumpIndexVersion(context.WithoutCancel(r.Context()))
	}
	if err != nil {
		s.logf("STORE_ERROR | path=/ingest error=%v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}

	s.mu.Lock()
	s.ingested++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHistory handles GET /history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sid, _ := s.sessionFor(w, r)

	st, err := s.storage()
	var msgs []HistoryEntry
	if err == nil {
		msgs, err = st.History(context.WithoutCancel(r.Context()), sid)
	}
	if err != nil {
		s.logf("STORE_ERROR | path=/history error=%v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": msgs})
}

// handleConsult handles POST /consult.
func (s *Server) handleConsult(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req consult.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req = req.Trimmed()

	// The reference backend stores age as an integer
	if req.Age != "" {
		if _, err := strconv.Atoi(req.Age); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("invalid age %q", req.Age))
			return
		}
	}

	_, sess := s.sessionFor(w, r)
	reply := DoctorReply(req)

	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("consult_%s_%03d.pdf", s.now().Format("20060102_150405"), s.seq)
	s.mu.Unlock()

	pdfPath := "storage/" + name
	data, err := RenderReport(req, reply, s.now())
	if err != nil {
		s.logf("REPORT_ERROR | name=%s error=%v", name, err)
		pdfPath = "Error generating PDF: " + err.Error()
	} else {
		s.mu.Lock()
		s.reports[name] = data
		sess.reports = append(sess.reports, name)
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, consult.Response{Reply: reply, PDF: pdfPath})
}

// handleDownload handles GET /download-report.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	_, sess := s.sessionFor(w, r)
	ref := path.Base(strings.TrimSpace(r.URL.Query().Get("report")))

	s.mu.Lock()
	var name string
	switch {
	case ref != "" && ref != "." && ref != "/" && s.reports[ref] != nil:
		name = ref
	case len(sess.reports) > 0:
		name = sess.reports[len(sess.reports)-1]
	}
	data := s.reports[name]
	s.mu.Unlock()

	if data == nil {
		writeError(w, http.StatusNotFound, "No report found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ============================================================================
// CANNED DOCTOR
// ============================================================================

type advice struct {
	keyword  string
	disease  string
	medicine string
	tests    string
	remedy   string
	dose     string
}

var adviceTable = []advice{
	{"fever", "Flu", "Paracetamol, Rest", "", "Warm fluids; Sleep", "500mg every 6 hours"},
	{"cough", "Common cold", "Cough syrup", "Chest X-ray", "Steam inhalation, Honey with warm water", "10ml three times a day"},
	{"headache", "Tension headache", "Ibuprofen", "", "Rest in a dark room; Hydration", "400mg after meals"},
	{"rash", "Contact dermatitis", "Antihistamine; Hydrocortisone cream", "Allergy panel", "Cool compress", ""},
	{"stomach", "Gastritis", "Antacid", "H. pylori test", "Small bland meals", ""},
}

// redFlags mirrors the keyword list the reference backend screens for.
var redFlags = []struct{ keyword, message string }{
	{"chest pain", "Chest pain with shortness of breath or sweating"},
	{"shortness of breath", "Shortness of breath at rest or worsening"},
	{"suicidal", "Suicidal thoughts or self-harm"},
	{"stroke", "Sudden weakness or facial droop"},
	{"severe abdominal pain", "Severe abdominal pain with persistent vomiting"},
	{"bleeding", "Uncontrolled bleeding"},
}

// DoctorReply builds a deterministic reply from the request.
func DoctorReply(req consult.Request) consult.Reply {
	text := strings.ToLower(req.Symptoms + " " + req.Disease)

	reply := consult.Reply{Tests: "Complete blood count", HomeRemedy: "Rest; Fluids"}
	for _, a := range adviceTable {
		if strings.Contains(text, a.keyword) {
			reply = consult.Reply{
				Disease:    a.disease,
				Medicine:   a.medicine,
				Tests:      a.tests,
				HomeRemedy: a.remedy,
				Dose:       a.dose,
			}
			break
		}
	}
	if reply.Disease == "" && req.Disease != "" {
		reply.Disease = req.Disease
	}

	var warnings []string
	for _, f := range redFlags {
		if strings.Contains(text, f.keyword) {
			warnings = append(warnings, f.message)
		}
	}
	if strings.EqualFold(req.Severity, "high") && len(warnings) == 0 && reply.Disease == "" {
		warnings = append(warnings, "High severity without a clear cause: see a doctor today")
	}
	reply.Warning = strings.Join(warnings, "; ")

	return reply
}
