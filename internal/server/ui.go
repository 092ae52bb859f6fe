package server

import "net/http"

// handleUI serves a small self-contained form for exercising the API from a
// browser.
func (s *Server) handleUI(w http.ResponseWriter, r *http.Request) {
	page := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>EXIF Inspector</title>
    <style>
        body {
            font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
            background: #0f172a;
            color: #f8fafc;
            max-width: 720px;
            margin: 2rem auto;
            padding: 0 1rem;
        }
        h1 { color: #3b82f6; }
        .card {
            background: #1e293b;
            border: 1px solid #475569;
            border-radius: 8px;
            padding: 1.5rem;
            margin-bottom: 1rem;
        }
        label { display: block; margin: 0.5rem 0 0.25rem; }
        select, input[type=text] {
            width: 100%;
            padding: 0.4rem;
            background: #334155;
            color: #f8fafc;
            border: 1px solid #475569;
            border-radius: 4px;
        }
        button {
            margin-top: 1rem;
            padding: 0.5rem 1.5rem;
            background: #3b82f6;
            color: white;
            border: none;
            border-radius: 4px;
            cursor: pointer;
        }
        button:hover { background: #2563eb; }
        pre {
            background: #334155;
            padding: 1rem;
            border-radius: 6px;
            overflow-x: auto;
            white-space: pre-wrap;
        }
        #limit { color: #cbd5e1; font-size: 0.9rem; }
    </style>
</head>
<body>
    <h1>EXIF Inspector</h1>
    <div class="card">
        <form id="uploadForm">
            <label for="endpoint">Operation</label>
            <select id="endpoint">
                <option value="analyze">Analyze (full EXIF)</option>
                <option value="fuji">Fujifilm recipe</option>
                <option value="rename">Filename proposal</option>
                <option value="batch">Batch analyze</option>
            </select>
            <label for="files">Image file(s)</label>
            <input type="file" id="files" multiple>
            <label for="format">Rename template (optional)</label>
            <input type="text" id="format" placeholder="{date}_{camera}">
            <button type="submit">Submit</button>
            <div id="limit"></div>
        </form>
    </div>
    <div class="card">
        <pre id="output">Responses appear here.</pre>
    </div>
    <script>
        fetch('/health')
            .then(r => r.json())
            .then(h => {
                document.getElementById('limit').textContent =
                    'Max file size: ' + h.config.max_file_size + ' MB (' + h.status + ')';
            });

        document.getElementById('uploadForm').addEventListener('submit', async (e) => {
            e.preventDefault();
            const endpoint = document.getElementById('endpoint').value;
            const files = document.getElementById('files').files;
            const format = document.getElementById('format').value;
            const output = document.getElementById('output');

            if (files.length === 0) {
                output.textContent = 'Choose a file first.';
                return;
            }

            const form = new FormData();
            if (endpoint === 'batch') {
                for (const f of files) form.append('files', f);
            } else {
                form.append('file', files[0]);
                if (endpoint === 'rename' && format) form.append('format', format);
            }

            output.textContent = 'Uploading...';
            try {
                const resp = await fetch('/api/v1/exif/' + endpoint, { method: 'POST', body: form });
                const data = await resp.json();
                output.textContent = JSON.stringify(data, null, 2);
            } catch (err) {
                output.textContent = 'Request failed: ' + err;
            }
        });
    </script>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}
