package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleConfig serves the configuration HTML page. With a configuration in
// the path, the form is pre-filled from it.
func (h *Handler) handleConfig(c *gin.Context) {
	html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>GoStremioCatalog configuration</title>
  <style>
    :root {
      --primary-color: #4a90e2;
      --secondary-color: #50e3c2;
      --background-color: #f7f9fc;
      --text-color: #333;
      --input-border: #ccc;
    }
    * { box-sizing: border-box; }
    body {
      font-family: sans-serif;
      background-color: var(--background-color);
      color: var(--text-color);
      margin: 0;
      padding: 20px;
      display: flex;
      align-items: center;
      justify-content: center;
      min-height: 100vh;
    }
    .container {
      background-color: #fff;
      border-radius: 8px;
      padding: 30px;
      max-width: 500px;
      width: 100%;
      box-shadow: 0 4px 12px rgba(0, 0, 0, 0.1);
    }
    h1 { text-align: center; margin-bottom: 20px; color: var(--primary-color); }
    p.hint { font-size: 0.9rem; color: #666; }
    label { font-weight: 500; margin-top: 15px; display: block; }
    input {
      width: 100%;
      padding: 10px;
      border: 1px solid var(--input-border);
      border-radius: 4px;
      margin-top: 5px;
      font-size: 1rem;
    }
    button {
      background-color: var(--primary-color);
      color: #fff;
      border: none;
      padding: 12px 20px;
      border-radius: 4px;
      font-size: 1rem;
      cursor: pointer;
      margin-top: 25px;
      width: 100%;
    }
    button:hover { background-color: var(--secondary-color); }
    .result {
      margin-top: 25px;
      background-color: #f1f3f5;
      border: 1px solid #e0e6ed;
      border-radius: 4px;
      padding: 15px;
      word-break: break-all;
    }
    .result a { color: var(--primary-color); text-decoration: none; font-weight: 500; }
  </style>
  <script>
    function fromBase64Url(s) {
      s = s.replace(/-/g, '+').replace(/_/g, '/');
      while (s.length % 4) s += '=';
      return atob(s);
    }

    function toBase64Url(s) {
      return btoa(s).replace(/\+/g, '-').replace(/\//g, '_').replace(/=+$/, '');
    }

    function getConfigFromURL() {
      const pathParts = window.location.pathname.split('/').filter(p => p);
      if (pathParts.length >= 2 && pathParts[pathParts.length - 1] === "configure") {
        try {
          const decodedConfig = JSON.parse(fromBase64Url(pathParts[pathParts.length - 2]));
          document.getElementById('email').value = decodedConfig.email || "";
          document.getElementById('password').value = decodedConfig.password || "";
        } catch (error) {
          console.error("Error decoding configuration:", error);
        }
      }
    }

    function generateConfig() {
      const email = document.getElementById('email').value.trim();
      const password = document.getElementById('password').value;
      const baseUrl = window.location.protocol + '//' + window.location.host;

      let manifestUrl = baseUrl + '/manifest.json';
      if (email && password) {
        const encodedConfig = toBase64Url(unescape(encodeURIComponent(JSON.stringify({ email, password }))));
        manifestUrl = baseUrl + '/' + encodedConfig + '/manifest.json';
      }

      const result = document.getElementById('result');
      result.textContent = '';
      const title = document.createElement('p');
      title.innerHTML = '<strong>Manifest link:</strong>';
      const link = document.createElement('a');
      link.href = manifestUrl.replace(/^https?:/, 'stremio:');
      link.textContent = manifestUrl;
      result.appendChild(title);
      result.appendChild(link);
    }

    window.onload = getConfigFromURL;
  </script>
</head>
<body>
  <div class="container">
    <h1>GoStremioCatalog</h1>
    <p class="hint">Leave both fields empty to browse with public streams only.</p>
    <label for="email">Account email</label>
    <input type="email" id="email" placeholder="you@example.com" autocomplete="username">

    <label for="password">Password</label>
    <input type="password" id="password" autocomplete="current-password">

    <button onclick="generateConfig()">Generate install link</button>
    <div id="result" class="result"></div>
  </div>
</body>
</html>`

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
