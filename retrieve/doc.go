// Copyright 2026 Hearthlight Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package retrieve implements corrective retrieval on top of the search
// strategies.
//
// The Retriever type runs a multi-step pipeline for each question:
//   - Decide whether the question needs decomposition into sub-questions
//   - Retrieve chunks for each sub-question independently
//   - Grade each retrieved chunk against the original question
//   - Synthesize a single answer when multiple sub-questions were used
//   - Build citations from the chunks that survived grading
//
// Every chat-model step degrades gracefully except final synthesis: a
// failed decomposition falls back to the original question, and a failed
// grading call drops the chunk it was grading.
package retrieve
